package repository

import (
	"context"
	"time"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"

	"github.com/google/uuid"
)

// ListAppointmentsBetween returns confirmed appointments in [from, to).
func (r *Repository) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]domain.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, property_ref, scheduled_at, status, created_at
		FROM appointments
		WHERE scheduled_at >= $1 AND scheduled_at < $2 AND status = $3
		ORDER BY scheduled_at ASC
	`, from, to, domain.AppointmentConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := make([]domain.Appointment, 0)
	for rows.Next() {
		var appt domain.Appointment
		if err := rows.Scan(&appt.ID, &appt.LeadID, &appt.PropertyRef, &appt.ScheduledAt, &appt.Status, &appt.CreatedAt); err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

// CreateAppointment records a confirmed property visit.
func (r *Repository) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now()
	}
	if appt.Status == "" {
		appt.Status = domain.AppointmentConfirmed
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, lead_id, property_ref, scheduled_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, appt.ID, appt.LeadID, appt.PropertyRef, appt.ScheduledAt, appt.Status, appt.CreatedAt)
	if err != nil {
		return domain.Appointment{}, err
	}
	return appt, nil
}
