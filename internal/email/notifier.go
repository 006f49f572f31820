package email

import (
	"context"
	"fmt"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/handoff"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/events"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

// Sender is the delivery capability the notifier needs.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TeamNotifier mails the sales team when a lead turns hot or asks for a
// human. It is wired to the event bus at startup.
type TeamNotifier struct {
	sender    Sender
	teamEmail string
	log       *logger.Logger
}

// NewTeamNotifier creates the notifier and subscribes it to the lead events.
// When sender is nil or no team address is configured the subscription is
// skipped and notifications are silently disabled.
func NewTeamNotifier(bus events.Bus, sender Sender, teamEmail string, log *logger.Logger) *TeamNotifier {
	n := &TeamNotifier{sender: sender, teamEmail: teamEmail, log: log}
	if sender == nil || teamEmail == "" {
		log.Warn("team notifications disabled", "reason", "no sender or team email configured")
		return n
	}

	bus.Subscribe(domain.EventLeadBecameHot, events.HandlerFunc(n.onLeadBecameHot))
	bus.Subscribe(domain.EventHandoffRequested, events.HandlerFunc(n.onHandoffRequested))
	return n
}

func (n *TeamNotifier) onLeadBecameHot(ctx context.Context, event events.Event) error {
	e, ok := event.(domain.LeadBecameHot)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventName())
	}

	name := e.Name
	if name == "" {
		name = "Sin nombre"
	}
	subject := fmt.Sprintf("🔥 Lead caliente: %s (score %d)", name, e.Score)
	body := fmt.Sprintf(
		"Un lead ha alcanzado el nivel %s y necesita seguimiento comercial.\n\n"+
			"Nombre: %s\nTeléfono: %s\nScore: %d/100\n\n%s\n",
		e.Tier, name, e.Phone, e.Score, e.Summary,
	)

	return n.sender.Send(ctx, n.teamEmail, subject, body)
}

func (n *TeamNotifier) onHandoffRequested(ctx context.Context, event events.Event) error {
	e, ok := event.(domain.HandoffRequested)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventName())
	}

	name := e.Name
	if name == "" {
		name = "Sin nombre"
	}
	subject := fmt.Sprintf("%s — %s", handoff.ReasonLabel(e.Reason), name)
	body := fmt.Sprintf(
		"Un cliente necesita atención humana.\n\n"+
			"Nombre: %s\nTeléfono: %s\nEmail: %s\nCanal: %s\nScore: %d/100\n\n"+
			"Último mensaje:\n%s\n\n%s\n",
		name, e.Phone, orDash(e.Email), e.Channel, e.Score, e.LastMessage, e.Summary,
	)

	return n.sender.Send(ctx, n.teamEmail, subject, body)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
