package domain

import (
	"github.com/AldoPgm/Agente-Inmobiliario/platform/events"

	"github.com/google/uuid"
)

// Event names for the leads bounded context.
const (
	EventLeadBecameHot    = "leads.lead_became_hot"
	EventHandoffRequested = "leads.handoff_requested"
)

// LeadBecameHot fires when a scoring pass moves a lead into the hot tier or
// above for the first time.
type LeadBecameHot struct {
	events.BaseEvent
	LeadID  uuid.UUID
	Name    string
	Phone   string
	Score   int
	Tier    Tier
	Summary string
}

func (LeadBecameHot) EventName() string { return EventLeadBecameHot }

// HandoffRequested fires when a lead asks for, or qualifies for, a human
// agent.
type HandoffRequested struct {
	events.BaseEvent
	LeadID      uuid.UUID
	Name        string
	Phone       string
	Email       string
	Score       int
	Channel     Channel
	Reason      string
	LastMessage string
	Summary     string
}

func (HandoffRequested) EventName() string { return EventHandoffRequested }
