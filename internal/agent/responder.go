// Package agent drives the conversational turn: it sends the prompt window
// to the reasoning service, dispatches the actions the model requests, feeds
// the results back, and returns the final reply for the client.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/properties"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/scheduling"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/reasoning"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

// Fixed replies for degraded situations. The client always gets an answer.
const (
	fallbackApology    = "Lo siento, estoy teniendo dificultades técnicas. ¿Podrías intentar de nuevo? 🙏"
	fallbackProcessing = "Estoy procesando tu solicitud. ¿Puedes darme un momento? 🙏"
)

const (
	defaultMaxRounds   = 3
	maxCompleteRetries = 3
	retryBackoffBase   = time.Second
)

// PropertyCatalog is the listing surface the agent can query.
type PropertyCatalog interface {
	Search(ctx context.Context, criteria repository.PropertyCriteria) ([]domain.Property, error)
	ByReference(ctx context.Context, reference string) (domain.Property, error)
}

// VisitBooker books property visits.
type VisitBooker interface {
	AvailableSlots(ctx context.Context, day time.Time) ([]time.Time, error)
	Book(ctx context.Context, lead domain.Lead, propertyRef string, at time.Time) (domain.Appointment, error)
}

// HumanHandoff escalates the conversation to the sales team and returns the
// reply sent to the client.
type HumanHandoff interface {
	Request(ctx context.Context, lead domain.Lead, reason, lastMessage, summary string) string
}

// Responder runs the bounded tool-calling loop.
type Responder struct {
	reasoner reasoning.Reasoner
	catalog  PropertyCatalog
	visits   VisitBooker
	handoff  HumanHandoff
	log      *logger.Logger

	agentName   string
	companyName string
	maxRounds   int
	temperature float64
	maxTokens   int

	sleep func(time.Duration)
}

// Config for the responder.
type Config struct {
	AgentName   string
	CompanyName string
	MaxRounds   int
	Temperature float64
	MaxTokens   int
}

// NewResponder creates the agent responder.
func NewResponder(reasoner reasoning.Reasoner, catalog PropertyCatalog, visits VisitBooker, handoff HumanHandoff, cfg Config, log *logger.Logger) *Responder {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Responder{
		reasoner:    reasoner,
		catalog:     catalog,
		visits:      visits,
		handoff:     handoff,
		log:         log,
		agentName:   cfg.AgentName,
		companyName: cfg.CompanyName,
		maxRounds:   cfg.MaxRounds,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		sleep:       time.Sleep,
	}
}

// RespondInput is one inbound client turn plus its context.
type RespondInput struct {
	Lead    domain.Lead
	Message string
	History []reasoning.Message
}

// Respond produces the reply for one inbound message. It never returns an
// error: reasoning faults degrade to a fixed apology and an exhausted round
// budget degrades to a fixed still-working reply.
func (r *Responder) Respond(ctx context.Context, in RespondInput) string {
	system := systemPrompt(r.agentName, r.companyName) + "\n\n" + qualificationContext(in.Lead)

	messages := make([]reasoning.Message, 0, len(in.History)+2)
	messages = append(messages, reasoning.Message{Role: reasoning.RoleSystem, Content: system})
	messages = append(messages, in.History...)
	messages = append(messages, reasoning.Message{Role: reasoning.RoleUser, Content: in.Message})

	for round := 0; round < r.maxRounds; round++ {
		result, err := r.complete(ctx, messages)
		if err != nil {
			return fallbackApology
		}

		if len(result.ToolCalls) == 0 {
			return result.Text
		}

		messages = append(messages, result.AssistantMessage())
		for _, call := range result.ToolCalls {
			r.log.ActionDispatched(call.Name, in.Lead.ID.String())
			output := r.dispatch(ctx, in.Lead, in.Message, call)
			messages = append(messages, reasoning.ToolResultMessage(call, output))
		}
	}

	return fallbackProcessing
}

// complete calls the reasoning service, retrying transient faults with
// exponential backoff.
func (r *Responder) complete(ctx context.Context, messages []reasoning.Message) (*reasoning.Result, error) {
	var lastErr error
	for attempt := 0; attempt < maxCompleteRetries; attempt++ {
		start := time.Now()
		result, err := r.reasoner.Complete(ctx, reasoning.Request{
			Messages:    messages,
			Tools:       agentTools,
			Temperature: r.temperature,
			MaxTokens:   r.maxTokens,
		})
		if err == nil {
			r.log.ReasoningCall(r.reasoner.Name(), r.reasoner.Name(), attempt, time.Since(start))
			return result, nil
		}

		lastErr = err
		r.log.ReasoningError(r.reasoner.Name(), attempt+1, err)
		if !reasoning.IsRetryable(err) {
			return nil, err
		}
		if attempt < maxCompleteRetries-1 {
			r.sleep(retryBackoffBase << attempt)
		}
	}
	return nil, lastErr
}

// dispatch executes one requested action. Failures come back as strings for
// the model to phrase to the client; they never abort the turn.
func (r *Responder) dispatch(ctx context.Context, lead domain.Lead, lastMessage string, call reasoning.ToolCall) string {
	switch call.Name {
	case actionSearchProperties:
		return r.searchProperties(ctx, call.Arguments)
	case actionGetPropertyDetails:
		return r.propertyDetails(ctx, call.Arguments)
	case actionScheduleVisit:
		return r.scheduleVisit(ctx, lead, call.Arguments)
	case actionCheckAvailability:
		return r.checkAvailability(ctx, call.Arguments)
	case actionCalculateMortgage:
		return r.calculateMortgage(call.Arguments)
	case actionTransferToHuman:
		return r.transferToHuman(ctx, lead, lastMessage, call.Arguments)
	default:
		return fmt.Sprintf("Función %s no implementada.", call.Name)
	}
}

func (r *Responder) searchProperties(ctx context.Context, rawArgs string) string {
	var args struct {
		Zone         string  `json:"zone"`
		PropertyType string  `json:"property_type"`
		MaxPrice     float64 `json:"max_price"`
		Bedrooms     int     `json:"bedrooms"`
		Operation    string  `json:"operation"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Sprintf("Parámetros de búsqueda no válidos: %v", err)
	}

	results, err := r.catalog.Search(ctx, repository.PropertyCriteria{
		Zone:         args.Zone,
		PropertyType: args.PropertyType,
		Operation:    normalizeOperation(args.Operation),
		MaxPrice:     args.MaxPrice,
		MinBedrooms:  args.Bedrooms,
	})
	if err != nil {
		return "Ahora mismo no puedo consultar el catálogo. Inténtalo en un momento."
	}
	return properties.FormatList(results)
}

func (r *Responder) propertyDetails(ctx context.Context, rawArgs string) string {
	var args struct {
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil || args.Reference == "" {
		return "Necesito la referencia de la propiedad (ej: REF-001)."
	}

	prop, err := r.catalog.ByReference(ctx, args.Reference)
	if err != nil {
		return fmt.Sprintf("No se encontró la propiedad con referencia %s.", args.Reference)
	}
	return properties.FormatForChat(prop)
}

func (r *Responder) scheduleVisit(ctx context.Context, lead domain.Lead, rawArgs string) string {
	var args struct {
		PropertyReference string `json:"property_reference"`
		PreferredDate     string `json:"preferred_date"`
		PreferredTime     string `json:"preferred_time"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Sprintf("Parámetros de visita no válidos: %v", err)
	}

	at, err := time.ParseInLocation("2006-01-02 15:04", args.PreferredDate+" "+args.PreferredTime, time.Local)
	if err != nil {
		return "Formato de fecha/hora no válido. Usa YYYY-MM-DD y HH:MM."
	}

	if _, err := r.visits.Book(ctx, lead, args.PropertyReference, at); err != nil {
		return "No se pudo agendar la visita. Puede que el horario no esté disponible."
	}
	return fmt.Sprintf(
		"✅ Visita agendada correctamente:\n"+
			"📅 Fecha: %s\n"+
			"🕐 Hora: %s\n"+
			"🏠 Propiedad: %s\n"+
			"Se enviarán recordatorios automáticos.",
		args.PreferredDate, args.PreferredTime, args.PropertyReference,
	)
}

func (r *Responder) checkAvailability(ctx context.Context, rawArgs string) string {
	var args struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Sprintf("Parámetros no válidos: %v", err)
	}

	day, err := time.ParseInLocation("2006-01-02", args.Date, time.Local)
	if err != nil {
		return "Formato de fecha no válido. Usa YYYY-MM-DD."
	}

	slots, err := r.visits.AvailableSlots(ctx, day)
	if err != nil {
		return "Ahora mismo no puedo consultar la agenda. Inténtalo en un momento."
	}
	return scheduling.FormatSlots(day, slots)
}

func (r *Responder) calculateMortgage(rawArgs string) string {
	var args struct {
		Price              float64 `json:"price"`
		DownPaymentPercent float64 `json:"down_payment_percent"`
		Years              int     `json:"years"`
		InterestRate       float64 `json:"interest_rate"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil || args.Price <= 0 {
		return "Necesito el precio del inmueble para calcular la hipoteca."
	}

	m := properties.CalculateMortgage(args.Price, args.DownPaymentPercent, args.InterestRate, args.Years)
	return properties.FormatMortgage(m)
}

func (r *Responder) transferToHuman(ctx context.Context, lead domain.Lead, lastMessage, rawArgs string) string {
	var args struct {
		Reason  string `json:"reason"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		args.Reason = "otro"
	}
	if args.Reason == "" {
		args.Reason = "solicitud_directa"
	}
	return r.handoff.Request(ctx, lead, args.Reason, lastMessage, args.Summary)
}

func normalizeOperation(op string) string {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "comprar", "compra", "venta":
		return "venta"
	case "alquilar", "alquiler":
		return "alquiler"
	default:
		return ""
	}
}
