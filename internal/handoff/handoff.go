// Package handoff routes a lead to a human agent: intent detection, urgent
// task creation, team notification and the canned reply sent to the client.
package handoff

import (
	"context"
	"fmt"
	"strings"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/events"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

// Handoff reasons.
const (
	ReasonComplaint     = "queja_cliente"
	ReasonNegotiation   = "negociacion"
	ReasonUrgent        = "urgente"
	ReasonDirectRequest = "solicitud_directa"
	ReasonHotLead       = "lead_caliente"
	ReasonOther         = "otro"
)

var handoffKeywords = []string{
	"hablar con persona", "hablar con alguien", "hablar con humano",
	"agente real", "persona real", "no un robot", "no un bot",
	"quiero llamar", "llámame", "contacto directo",
	"hablar con un asesor", "asesor humano", "comercial",
	"me urge", "urgente", "cerrar operación", "firmar",
	"oferta", "negociar", "contraoferta",
	"problema", "queja", "reclamación", "insatisfecho",
}

// DetectIntent reports whether the message asks for a human agent.
func DetectIntent(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range handoffKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ReasonFor classifies why the client wants a human.
func ReasonFor(message string) string {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "queja", "reclamación", "problema", "insatisfecho"):
		return ReasonComplaint
	case containsAny(lower, "oferta", "negociar", "contraoferta", "firmar", "cerrar"):
		return ReasonNegotiation
	case containsAny(lower, "urgente", "me urge"):
		return ReasonUrgent
	case containsAny(lower, "persona", "humano", "asesor", "comercial", "robot", "bot"):
		return ReasonDirectRequest
	default:
		return ReasonOther
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ReasonLabel renders a reason for team-facing notifications.
func ReasonLabel(reason string) string {
	labels := map[string]string{
		ReasonComplaint:     "⚠️ QUEJA DE CLIENTE",
		ReasonNegotiation:   "💰 NEGOCIACIÓN / OFERTA",
		ReasonUrgent:        "🔴 URGENTE",
		ReasonDirectRequest: "👤 SOLICITA HABLAR CON PERSONA",
		ReasonHotLead:       "🔥 LEAD CALIENTE",
	}
	if label, ok := labels[reason]; ok {
		return label
	}
	return "📋 REQUIERE ATENCIÓN"
}

// ClientResponse is the reply the agent sends the client when handing off.
func ClientResponse(reason string) string {
	switch reason {
	case ReasonComplaint:
		return "Lamento mucho que hayas tenido una mala experiencia. " +
			"He contactado a nuestro equipo y un responsable se pondrá en contacto contigo " +
			"en los próximos minutos para resolverlo personalmente. 🤝"
	case ReasonNegotiation:
		return "¡Genial que quieras avanzar! He avisado a nuestro equipo comercial. " +
			"Un asesor especializado te contactará en breve para ayudarte con la negociación. " +
			"¿Hay algún horario que prefieras para la llamada? 📞"
	case ReasonUrgent:
		return "Entiendo la urgencia. He marcado tu caso como prioritario. " +
			"Un miembro de nuestro equipo te contactará lo antes posible. " +
			"Si prefieres, también puedes llamarnos directamente. 📞"
	default:
		return "Por supuesto, te pongo en contacto con uno de nuestros asesores. " +
			"He compartido tu conversación con el equipo para que puedan ayudarte " +
			"sin que tengas que repetir nada. Te contactarán en breve. 🤝"
	}
}

// Coordinator records handoff tasks and broadcasts the request to the team.
type Coordinator struct {
	tasks repository.TaskWriter
	bus   events.Bus
	log   *logger.Logger
}

// NewCoordinator creates a handoff coordinator.
func NewCoordinator(tasks repository.TaskWriter, bus events.Bus, log *logger.Logger) *Coordinator {
	return &Coordinator{tasks: tasks, bus: bus, log: log}
}

// Request creates the urgent follow-up task, publishes the event for the team
// notifier, and returns the canned client reply. A task write failure is
// logged and the handoff still proceeds so the client is never left hanging.
func (c *Coordinator) Request(ctx context.Context, lead domain.Lead, reason, lastMessage, summary string) string {
	task := domain.Task{
		LeadID:      lead.ID,
		Type:        domain.TaskTypeHandoff,
		Description: fmt.Sprintf("%s solicitó atención humana (%s)", displayName(lead), reason),
		Priority:    domain.TaskPriorityUrgent,
	}
	if err := c.tasks.CreateTask(ctx, task); err != nil {
		c.log.DatabaseError("create handoff task", err)
	}

	c.bus.Publish(ctx, domain.HandoffRequested{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		Name:        lead.Name,
		Phone:       lead.Phone,
		Email:       lead.Email,
		Score:       lead.Score,
		Channel:     lead.Channel,
		Reason:      reason,
		LastMessage: lastMessage,
		Summary:     summary,
	})
	c.log.ActionDispatched("transfer_to_human", lead.ID.String())

	return ClientResponse(reason)
}

func displayName(lead domain.Lead) string {
	if strings.TrimSpace(lead.Name) != "" {
		return lead.Name
	}
	return lead.Phone
}
