// Package qualifier runs the extraction and scoring pass over a lead's
// conversation: structured extraction, fill-only merge, score and tier
// recomputation, lifecycle advance and qualification side effects.
package qualifier

import (
	"context"
	"fmt"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/conversation"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/scoring"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/reasoning"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/events"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

// Qualifier turns conversation transcripts into an updated lead profile.
type Qualifier struct {
	reasoner      reasoning.Reasoner
	conversations *conversation.Manager
	leads         repository.LeadWriter
	tasks         repository.TaskWriter
	bus           events.Bus
	log           *logger.Logger
}

// New creates a qualifier.
func New(reasoner reasoning.Reasoner, conversations *conversation.Manager, leads repository.LeadWriter, tasks repository.TaskWriter, bus events.Bus, log *logger.Logger) *Qualifier {
	return &Qualifier{
		reasoner:      reasoner,
		conversations: conversations,
		leads:         leads,
		tasks:         tasks,
		bus:           bus,
		log:           log,
	}
}

// Qualify runs one extraction and scoring pass. The pass is conservative:
// an empty conversation, an unparseable extraction or a failed persist all
// leave the stored lead untouched. Re-running on an unchanged transcript
// converges to the same profile.
func (q *Qualifier) Qualify(ctx context.Context, lead domain.Lead, channel domain.Channel) (domain.Lead, error) {
	conv, err := q.conversations.GetOrCreate(ctx, lead.ID, channel)
	if err != nil {
		return lead, fmt.Errorf("load conversation: %w", err)
	}

	transcript := q.conversations.FullText(conv)
	if transcript == "" {
		return lead, nil
	}

	result, err := q.reasoner.Complete(ctx, reasoning.Request{
		Messages: []reasoning.Message{
			{Role: reasoning.RoleSystem, Content: extractionSystemPrompt},
			{Role: reasoning.RoleUser, Content: extractionPrompt + transcript},
		},
		ForceJSON: true,
	})
	if err != nil {
		q.log.ExtractionSkipped(lead.ID.String(), "reasoning call failed: "+err.Error())
		return lead, nil
	}

	ext, ok := parseExtraction(result.Text)
	if !ok {
		q.log.ExtractionSkipped(lead.ID.String(), "unparseable extraction output")
		return lead, nil
	}

	previousTier := lead.Tier
	updated := merge(lead, ext)
	updated.Score = scoring.Compute(updated)
	updated.Tier = scoring.TierFor(updated.Score)
	updated.Status = domain.StatusForScore(updated.Status, updated.Score)

	if err := q.leads.UpdateProfile(ctx, updated); err != nil {
		q.log.DatabaseError("update lead profile", err)
		return lead, fmt.Errorf("persist qualification: %w", err)
	}

	if becameHot(previousTier, updated.Tier) {
		q.onLeadBecameHot(ctx, updated)
	}
	if ext.WantsHuman != nil && *ext.WantsHuman {
		q.onWantsHuman(ctx, updated)
	}

	return updated, nil
}

func becameHot(previous, current domain.Tier) bool {
	hot := map[domain.Tier]bool{domain.TierHot: true, domain.TierReady: true}
	return hot[current] && !hot[previous]
}

func (q *Qualifier) onLeadBecameHot(ctx context.Context, lead domain.Lead) {
	task := domain.Task{
		LeadID:      lead.ID,
		Type:        domain.TaskTypeHotLead,
		Description: fmt.Sprintf("Lead caliente: %s (score %d/100). Contactar hoy.", displayName(lead), lead.Score),
		Priority:    domain.TaskPriorityHigh,
	}
	if err := q.tasks.CreateTask(ctx, task); err != nil {
		q.log.DatabaseError("create hot lead task", err)
	}

	q.bus.Publish(ctx, domain.LeadBecameHot{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Score:     lead.Score,
		Tier:      lead.Tier,
		Summary:   Summary(lead),
	})
}

func (q *Qualifier) onWantsHuman(ctx context.Context, lead domain.Lead) {
	task := domain.Task{
		LeadID:      lead.ID,
		Type:        domain.TaskTypeHandoff,
		Description: fmt.Sprintf("%s pidió hablar con una persona.", displayName(lead)),
		Priority:    domain.TaskPriorityUrgent,
	}
	if err := q.tasks.CreateTask(ctx, task); err != nil {
		q.log.DatabaseError("create handoff task", err)
	}

	q.bus.Publish(ctx, domain.HandoffRequested{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Email:     lead.Email,
		Score:     lead.Score,
		Channel:   lead.Channel,
		Reason:    "solicitud_directa",
		Summary:   Summary(lead),
	})
}

func displayName(lead domain.Lead) string {
	if lead.Name != "" {
		return lead.Name
	}
	return lead.Phone
}
