// Package nurturing runs the periodic follow-up pass over inactive leads.
// Rules fire at most one action per lead per pass. The evaluator only sends;
// it never writes to the lead record, so the contact clock keeps measuring
// the last real conversation rather than our own follow-ups.
package nurturing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

// ChatSender delivers a text message to a lead's phone.
type ChatSender interface {
	SendText(ctx context.Context, phone, text string) error
}

// EmailSender delivers a plain-text email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Rule names, reported in logs and the pass summary.
const (
	RuleHotLeadUrgency       = "hot_lead_urgency"
	RuleWarmLeadNudge        = "warm_lead_nudge"
	RulePostFirstContact     = "post_first_contact"
	RuleColdLeadReactivation = "cold_lead_reactivation"
)

// Summary aggregates one nurturing pass.
type Summary struct {
	Processed    int
	MessagesSent int
	EmailsSent   int
	Errors       int
}

// Evaluator applies the follow-up rules to a batch of leads.
type Evaluator struct {
	chat  ChatSender
	email EmailSender
	log   *logger.Logger

	agentName   string
	companyName string

	now func() time.Time
}

// New creates the evaluator. email may be nil when outbound mail is disabled;
// email rules are then skipped.
func New(chat ChatSender, email EmailSender, agentName, companyName string, log *logger.Logger) *Evaluator {
	return &Evaluator{
		chat:        chat,
		email:       email,
		log:         log,
		agentName:   agentName,
		companyName: companyName,
		now:         time.Now,
	}
}

type action struct {
	rule    string
	channel domain.Channel
}

// EvaluateAndAct runs one pass. Per-lead failures are counted and logged; the
// pass always completes.
func (e *Evaluator) EvaluateAndAct(ctx context.Context, leads []domain.Lead) Summary {
	var summary Summary
	now := e.now()

	for _, lead := range leads {
		act := evaluate(lead, now)
		if act == nil {
			continue
		}
		summary.Processed++

		if err := e.execute(ctx, lead, *act); err != nil {
			summary.Errors++
			e.log.DeliveryError(string(act.channel), lead.ID.String(), err)
			continue
		}

		switch act.channel {
		case domain.ChannelEmail:
			summary.EmailsSent++
		default:
			summary.MessagesSent++
		}

		e.log.NurturingAction(lead.ID.String(), act.rule, string(act.channel))
	}
	return summary
}

// evaluate returns the first matching rule, or nil. Order matters: the
// hottest leads take priority.
func evaluate(lead domain.Lead, now time.Time) *action {
	days := lead.DaysSinceContact(now)

	if lead.Score >= 60 && days >= 2 {
		return &action{rule: RuleHotLeadUrgency, channel: domain.ChannelWhatsApp}
	}
	if lead.Score >= 30 && lead.Score < 60 && days >= 3 {
		return &action{rule: RuleWarmLeadNudge, channel: domain.ChannelWhatsApp}
	}
	if lead.TotalInteractions <= 2 && lead.Score < 30 && days >= 1 && days <= 2 {
		return &action{rule: RulePostFirstContact, channel: domain.ChannelWhatsApp}
	}
	if lead.Score < 30 && days >= 7 {
		return &action{rule: RuleColdLeadReactivation, channel: domain.ChannelEmail}
	}
	return nil
}

func (e *Evaluator) execute(ctx context.Context, lead domain.Lead, act action) error {
	body := e.message(act.rule, lead)

	if act.channel == domain.ChannelEmail {
		if e.email == nil {
			return fmt.Errorf("email delivery disabled")
		}
		if lead.Email == "" {
			return fmt.Errorf("lead has no email address")
		}
		return e.email.Send(ctx, lead.Email, e.subject(act.rule), body)
	}

	if lead.Phone == "" {
		return fmt.Errorf("lead has no phone number")
	}
	return e.chat.SendText(ctx, lead.Phone, body)
}

func (e *Evaluator) subject(rule string) string {
	switch rule {
	case RulePostFirstContact:
		return fmt.Sprintf("¿Encontraste lo que buscabas? — %s", e.companyName)
	case RuleWarmLeadNudge:
		return fmt.Sprintf("🏠 Nuevas opciones para ti — %s", e.companyName)
	case RuleHotLeadUrgency:
		return fmt.Sprintf("¡No te pierdas esta oportunidad! — %s", e.companyName)
	case RuleColdLeadReactivation:
		return fmt.Sprintf("Te echamos de menos — %s", e.companyName)
	default:
		return fmt.Sprintf("Novedades — %s", e.companyName)
	}
}

func (e *Evaluator) message(rule string, lead domain.Lead) string {
	greeting := "¡Hola!"
	if name := lead.FirstName(); name != "" {
		greeting = fmt.Sprintf("¡Hola %s!", name)
	}

	zone := derefOr(lead.Preferences.Zone, "")
	propType := derefOr(lead.Preferences.PropertyType, "")

	switch rule {
	case RulePostFirstContact:
		searched := ""
		if zone != "" || propType != "" {
			what := propType
			if what == "" {
				what = "algo"
			}
			searched = "Recuerdo que buscabas " + what
			if zone != "" {
				searched += " en " + zone
			}
			searched += ". "
		}
		return fmt.Sprintf(
			"%s 😊\n\nSoy %s de %s. Ayer estuvimos hablando y quería saber si encontraste "+
				"lo que buscabas o si puedo ayudarte con algo más.\n\n"+
				"%sTengo algunas opciones que podrían interesarte. ¿Seguimos? 🏠",
			greeting, e.agentName, e.companyName, searched,
		)

	case RuleWarmLeadNudge:
		where := ""
		if zone != "" {
			where = " en " + zone
		}
		kind := ""
		if propType != "" {
			kind = " (" + propType + ")"
		}
		return fmt.Sprintf(
			"%s\n\n🏠 Han llegado nuevas propiedades que coinciden con lo que buscas%s%s.\n\n"+
				"¿Te gustaría que te envíe los detalles? Solo responde \"sí\" y te mando toda la info. 😊\n\n"+
				"— %s, %s",
			greeting, where, kind, e.agentName, e.companyName,
		)

	case RuleHotLeadUrgency:
		where := ""
		if zone != "" {
			where = " en " + zone
		}
		return fmt.Sprintf(
			"%s\n\n¡Quería avisarte! Hay mucho interés en las propiedades que viste%s. "+
				"Si quieres que te reserve una visita antes de que se vayan, ¡dime y lo agendamos! 🔥\n\n"+
				"— %s, %s",
			greeting, where, e.agentName, e.companyName,
		)

	case RuleColdLeadReactivation:
		what := propType
		if what == "" {
			what = "propiedad"
		}
		question := "¿Sigues buscando " + what
		if zone != "" {
			question += " en " + zone
		}
		question += "?"
		return fmt.Sprintf(
			"%s\n\nHace tiempo que no hablamos y quería escribirte. %s\n\n"+
				"Tenemos novedades interesantes en nuestro catálogo. "+
				"Si quieres, puedo enviarte las últimas opciones.\n\n"+
				"¡Estamos aquí para ayudarte!\n\nUn saludo,\n%s\n%s",
			greeting, question, e.agentName, e.companyName,
		)
	}

	return fmt.Sprintf("%s\n\n¿Puedo ayudarte con algo? — %s, %s", greeting, e.agentName, e.companyName)
}

func derefOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}
