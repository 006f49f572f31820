// Package events carries domain events between modules without coupling the
// publisher to its consumers. The qualifier publishes here; notifiers
// subscribe.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName identifies the event type; subscriptions key on it.
	EventName() string
	// OccurredAt is the moment the event happened.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp every event carries. Embed it and
// implement EventName on the concrete type.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes published events to the handlers subscribed to their name.
type Bus interface {
	// Publish dispatches the event without waiting for handlers.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches the event and waits for every handler,
	// returning the first handler error. Tests use this to assert on
	// handler side effects.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the given event name.
	Subscribe(eventName string, handler Handler)
}
