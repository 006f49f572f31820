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
)

// GetConversation loads the whole conversation document for a lead and channel.
func (r *Repository) GetConversation(ctx context.Context, leadID uuid.UUID, channel domain.Channel) (domain.Conversation, error) {
	var conv domain.Conversation
	var messages []byte

	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, channel, messages, updated_at
		FROM conversations
		WHERE lead_id = $1 AND channel = $2
	`, leadID, channel).Scan(&conv.ID, &conv.LeadID, &conv.Channel, &messages, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Conversation{}, ErrNotFound
		}
		return domain.Conversation{}, err
	}

	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &conv.Messages); err != nil {
			return domain.Conversation{}, fmt.Errorf("decode conversation messages: %w", err)
		}
	}
	return conv, nil
}

// SaveConversation upserts the whole message list. Last writer wins; the
// per-key lock in the conversation manager serializes writers in-process.
func (r *Repository) SaveConversation(ctx context.Context, conv domain.Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = time.Now()
	}
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("encode conversation messages: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO conversations (id, lead_id, channel, messages, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lead_id, channel)
		DO UPDATE SET messages = EXCLUDED.messages, updated_at = EXCLUDED.updated_at
	`, conv.ID, conv.LeadID, conv.Channel, messages, conv.UpdatedAt)
	return err
}
