// Package webhook receives inbound client messages over HTTP and drives one
// full agent turn per message: lead lookup, conversation append, response
// generation, qualification and delivery.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/agent"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/conversation"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/phone"
)

// qualifyEvery is the interaction cadence for re-running extraction after the
// first few turns. Early turns qualify on every message while the profile is
// still empty.
const (
	qualifyFirstTurns = 3
	qualifyEvery      = 3
)

// LeadStore is the lead persistence surface the service needs.
type LeadStore interface {
	GetByPhone(ctx context.Context, phone string) (domain.Lead, error)
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	TouchContact(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Responder produces the agent reply for one turn.
type Responder interface {
	Respond(ctx context.Context, in agent.RespondInput) string
}

// Qualifier re-scores the lead from the conversation so far.
type Qualifier interface {
	Qualify(ctx context.Context, lead domain.Lead, channel domain.Channel) (domain.Lead, error)
}

// ChatSender pushes the reply out through the messaging gateway.
type ChatSender interface {
	SendText(ctx context.Context, phone, text string) error
}

// InboundMessage is one client message arriving from a channel gateway.
type InboundMessage struct {
	Identity string
	Channel  domain.Channel
	Text     string
}

// TurnResult is what one processed turn produced.
type TurnResult struct {
	LeadID uuid.UUID
	Reply  string
	Score  int
	Tier   domain.Tier
	Status domain.Status
}

// Service runs the agent turn.
type Service struct {
	leads         LeadStore
	conversations *conversation.Manager
	responder     Responder
	qualifier     Qualifier
	chat          ChatSender
	log           *logger.Logger
	now           func() time.Time
}

func NewService(
	leads LeadStore,
	conversations *conversation.Manager,
	responder Responder,
	qualifier Qualifier,
	chat ChatSender,
	log *logger.Logger,
) *Service {
	return &Service{
		leads:         leads,
		conversations: conversations,
		responder:     responder,
		qualifier:     qualifier,
		chat:          chat,
		log:           log,
		now:           time.Now,
	}
}

// ErrUnknownChannel rejects channels nothing can deliver on.
var ErrUnknownChannel = errors.New("unknown channel")

// ProcessInbound handles one inbound message end to end. Turns for the same
// lead and channel serialize on the conversation lock; everything after the
// lead lookup happens under it.
func (s *Service) ProcessInbound(ctx context.Context, in InboundMessage) (TurnResult, error) {
	channel := in.Channel
	if channel == "" {
		channel = domain.ChannelWhatsApp
	}
	if !domain.IsKnownChannel(channel) {
		return TurnResult{}, fmt.Errorf("%w: %s", ErrUnknownChannel, in.Channel)
	}

	lead, err := s.findOrCreateLead(ctx, in.Identity, channel)
	if err != nil {
		return TurnResult{}, err
	}

	unlock := s.conversations.Acquire(lead.ID, channel)
	defer unlock()

	if err := s.leads.TouchContact(ctx, lead.ID, s.now()); err != nil {
		s.log.DatabaseError("touch contact", err)
	}
	lead.TotalInteractions++

	conv, err := s.conversations.Append(ctx, lead.ID, channel, domain.RoleUser, in.Text)
	if err != nil {
		return TurnResult{}, fmt.Errorf("record inbound message: %w", err)
	}

	reply := s.responder.Respond(ctx, agent.RespondInput{
		Lead:    lead,
		Message: in.Text,
		History: s.conversations.WindowedHistory(conv, true),
	})

	if _, err := s.conversations.Append(ctx, lead.ID, channel, domain.RoleAssistant, reply); err != nil {
		s.log.DatabaseError("record assistant reply", err)
	}

	if s.shouldQualify(lead.TotalInteractions) {
		qualified, err := s.qualifier.Qualify(ctx, lead, channel)
		if err != nil {
			s.log.DatabaseError("qualify lead", err)
		} else {
			lead = qualified
		}
	}

	s.deliver(ctx, lead, channel, reply)

	return TurnResult{
		LeadID: lead.ID,
		Reply:  reply,
		Score:  lead.Score,
		Tier:   lead.Tier,
		Status: lead.Status,
	}, nil
}

func (s *Service) findOrCreateLead(ctx context.Context, identity string, channel domain.Channel) (domain.Lead, error) {
	normalized := phone.NormalizeE164(identity)

	lead, err := s.leads.GetByPhone(ctx, normalized)
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, fmt.Errorf("lookup lead: %w", err)
	}

	lead, err = s.leads.Create(ctx, domain.Lead{
		Phone:   normalized,
		Channel: channel,
		Status:  domain.StatusNew,
		Tier:    domain.TierCold,
	})
	if err != nil {
		return domain.Lead{}, fmt.Errorf("create lead: %w", err)
	}
	s.log.Info("lead created", "lead_id", lead.ID.String(), "channel", string(channel))
	return lead, nil
}

func (s *Service) shouldQualify(interactions int) bool {
	return interactions <= qualifyFirstTurns || interactions%qualifyEvery == 0
}

// deliver pushes the reply out of band for gateway channels. Web clients read
// the reply from the HTTP response instead.
func (s *Service) deliver(ctx context.Context, lead domain.Lead, channel domain.Channel, reply string) {
	if channel != domain.ChannelWhatsApp || s.chat == nil {
		return
	}
	if err := s.chat.SendText(ctx, lead.Phone, reply); err != nil {
		s.log.DeliveryError(string(channel), lead.Phone, err)
	}
}
