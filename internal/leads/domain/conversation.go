package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a lead conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the full recorded history of one lead on one channel.
// The (LeadID, Channel) pair is unique; messages are stored as a whole
// ordered document.
type Conversation struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Channel   Channel
	Messages  []Message
	UpdatedAt time.Time
}

// Append adds a message stamped with the current time.
func (c *Conversation) Append(role Role, content string, now time.Time) {
	c.Messages = append(c.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	c.UpdatedAt = now
}

// Task is a follow-up item for the sales team, created by qualification
// side effects and handoff requests.
type Task struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	Type        string
	Description string
	Priority    string
	Status      string
	CreatedAt   time.Time
}

// Task priorities.
const (
	TaskPriorityNormal = "normal"
	TaskPriorityHigh   = "alta"
	TaskPriorityUrgent = "urgente"
)

// Task types.
const (
	TaskTypeHotLead = "lead_caliente"
	TaskTypeHandoff = "atencion_humana"
)

// Appointment is a scheduled property visit.
type Appointment struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	PropertyRef string
	ScheduledAt time.Time
	Status      string
	CreatedAt   time.Time
}

// Appointment statuses.
const (
	AppointmentConfirmed = "confirmada"
	AppointmentCancelled = "cancelada"
)

// Property is a catalog listing.
type Property struct {
	ID           uuid.UUID
	Reference    string
	Title        string
	PropertyType string
	Operation    string
	Price        float64
	Zone         string
	Bedrooms     int
	Bathrooms    int
	SquareMeters int
	Description  string
	Status       string
	CreatedAt    time.Time
}
