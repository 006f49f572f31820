package repository

import (
	"context"
	"time"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	GetByPhone(ctx context.Context, phone string) (domain.Lead, error)
	ListActive(ctx context.Context, limit int) ([]domain.Lead, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	UpdateProfile(ctx context.Context, lead domain.Lead) error
	TouchContact(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ConversationStore persists whole conversation documents.
type ConversationStore interface {
	GetConversation(ctx context.Context, leadID uuid.UUID, channel domain.Channel) (domain.Conversation, error)
	SaveConversation(ctx context.Context, conv domain.Conversation) error
}

// TaskWriter records follow-up items for the sales team.
type TaskWriter interface {
	CreateTask(ctx context.Context, task domain.Task) error
}

// AppointmentStore manages scheduled property visits.
type AppointmentStore interface {
	ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]domain.Appointment, error)
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}

// PropertyReader provides read access to the listing catalog.
type PropertyReader interface {
	SearchProperties(ctx context.Context, criteria PropertyCriteria) ([]domain.Property, error)
	GetPropertyByReference(ctx context.Context, reference string) (domain.Property, error)
}
