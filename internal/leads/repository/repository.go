// Package repository provides postgres persistence for the leads bounded
// context: leads, conversations, tasks, appointments and the property catalog.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, phone, name, email, channel, status, score, tier, preferences, total_interactions, created_at, last_contact`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	var name, email *string
	var prefs []byte

	err := row.Scan(
		&lead.ID, &lead.Phone, &name, &email, &lead.Channel, &lead.Status,
		&lead.Score, &lead.Tier, &prefs, &lead.TotalInteractions,
		&lead.CreatedAt, &lead.LastContact,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, ErrNotFound
		}
		return domain.Lead{}, err
	}

	if name != nil {
		lead.Name = *name
	}
	if email != nil {
		lead.Email = *email
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &lead.Preferences); err != nil {
			return domain.Lead{}, fmt.Errorf("decode lead preferences: %w", err)
		}
	}
	return lead, nil
}

// GetByID returns a lead by its primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

// GetByPhone returns a lead by its normalized phone identity.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE phone = $1`, phone)
	return scanLead(row)
}

// ListActive returns non-closed leads for nurturing evaluation, stalest first.
func (r *Repository) ListActive(ctx context.Context, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status NOT IN ($1, $2)
		ORDER BY last_contact ASC NULLS FIRST
		LIMIT $3
	`, domain.StatusClosed, domain.StatusLost, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// Create inserts a new lead. Zero-value ID and timestamps are filled in.
func (r *Repository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	prefs, err := json.Marshal(lead.Preferences)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("encode lead preferences: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO leads (id, phone, name, email, channel, status, score, tier, preferences, total_interactions, created_at, last_contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, lead.ID, lead.Phone, nullable(lead.Name), nullable(lead.Email), lead.Channel,
		lead.Status, lead.Score, lead.Tier, prefs, lead.TotalInteractions,
		lead.CreatedAt, lead.LastContact)
	if err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// UpdateProfile persists the qualification profile in one statement so score,
// tier, status and preferences never drift apart.
func (r *Repository) UpdateProfile(ctx context.Context, lead domain.Lead) error {
	prefs, err := json.Marshal(lead.Preferences)
	if err != nil {
		return fmt.Errorf("encode lead preferences: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET name = $2, email = $3, status = $4, score = $5, tier = $6, preferences = $7
		WHERE id = $1
	`, lead.ID, nullable(lead.Name), nullable(lead.Email), lead.Status, lead.Score, lead.Tier, prefs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchContact bumps the interaction counter and last-contact timestamp.
func (r *Repository) TouchContact(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET total_interactions = total_interactions + 1, last_contact = $2
		WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
