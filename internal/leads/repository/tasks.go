package repository

import (
	"context"
	"time"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"

	"github.com/google/uuid"
)

// CreateTask records a follow-up item for the sales team.
func (r *Repository) CreateTask(ctx context.Context, task domain.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if task.Status == "" {
		task.Status = "pendiente"
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, lead_id, type, description, priority, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, task.ID, task.LeadID, task.Type, task.Description, task.Priority, task.Status, task.CreatedAt)
	return err
}
