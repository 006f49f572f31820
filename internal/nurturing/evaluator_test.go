package nurturing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

type sentText struct {
	phone string
	text  string
}

type fakeChat struct {
	sent []sentText
	err  error
}

func (f *fakeChat) SendText(_ context.Context, phone, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentText{phone: phone, text: text})
	return nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMail struct {
	sent []sentMail
	err  error
}

func (f *fakeMail) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var passTime = time.Date(2030, 6, 15, 9, 0, 0, 0, time.UTC)

type evalFixture struct {
	chat *fakeChat
	mail *fakeMail
	eval *Evaluator
}

func newEvalFixture() *evalFixture {
	f := &evalFixture{
		chat: &fakeChat{},
		mail: &fakeMail{},
	}
	f.eval = New(f.chat, f.mail, "Sofía", "Inmobiliaria Horizonte", logger.New("test"))
	f.eval.now = func() time.Time { return passTime }
	return f
}

func leadWith(score, interactions, daysAgo int) domain.Lead {
	lead := domain.Lead{
		ID:                uuid.New(),
		Phone:             "+34600111222",
		Email:             "cliente@example.com",
		Name:              "Carmen Ruiz",
		Score:             score,
		TotalInteractions: interactions,
	}
	if daysAgo >= 0 {
		at := passTime.AddDate(0, 0, -daysAgo)
		lead.LastContact = &at
	}
	return lead
}

func TestEvaluateRuleSelection(t *testing.T) {
	cases := []struct {
		name         string
		score        int
		interactions int
		daysAgo      int
		wantRule     string
	}{
		{"hot stale", 70, 5, 2, RuleHotLeadUrgency},
		{"hot very stale", 60, 5, 10, RuleHotLeadUrgency},
		{"hot recent no action", 70, 5, 1, ""},
		{"warm nudge", 45, 4, 3, RuleWarmLeadNudge},
		{"warm recent no action", 45, 4, 2, ""},
		{"first follow-up day one", 10, 1, 1, RulePostFirstContact},
		{"first follow-up day two", 10, 2, 2, RulePostFirstContact},
		{"first follow-up too late becomes nothing", 10, 2, 3, ""},
		{"cold reactivation", 10, 2, 7, RuleColdLeadReactivation},
		{"cold never contacted", 0, 0, -1, RuleColdLeadReactivation},
		{"cold but many interactions still reactivates", 20, 8, 9, RuleColdLeadReactivation},
		{"fresh lead no action", 10, 1, 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			act := evaluate(leadWith(tc.score, tc.interactions, tc.daysAgo), passTime)
			got := ""
			if act != nil {
				got = act.rule
			}
			if got != tc.wantRule {
				t.Fatalf("rule = %q, want %q", got, tc.wantRule)
			}
		})
	}
}

func TestHotRuleWinsOverWarm(t *testing.T) {
	// score 60 with 3 stale days satisfies both thresholds; hot takes priority.
	act := evaluate(leadWith(60, 5, 3), passTime)
	if act == nil || act.rule != RuleHotLeadUrgency {
		t.Fatalf("act = %+v, want hot_lead_urgency", act)
	}
}

func TestEvaluateAndActSendsChat(t *testing.T) {
	f := newEvalFixture()
	lead := leadWith(70, 5, 2)
	zone := "Chamberí"
	lead.Preferences.Zone = &zone

	summary := f.eval.EvaluateAndAct(context.Background(), []domain.Lead{lead})

	if summary.Processed != 1 || summary.MessagesSent != 1 || summary.EmailsSent != 0 || summary.Errors != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(f.chat.sent) != 1 {
		t.Fatalf("chat sends = %d, want 1", len(f.chat.sent))
	}
	msg := f.chat.sent[0]
	if msg.phone != lead.Phone {
		t.Errorf("phone = %q", msg.phone)
	}
	for _, want := range []string{"¡Hola Carmen!", "en Chamberí", "Sofía"} {
		if !strings.Contains(msg.text, want) {
			t.Errorf("message missing %q:\n%s", want, msg.text)
		}
	}
}

func TestEvaluateAndActNeverMutatesLeads(t *testing.T) {
	f := newEvalFixture()
	lead := leadWith(70, 5, 2)
	before := lead

	f.eval.EvaluateAndAct(context.Background(), []domain.Lead{lead})

	if lead.LastContact == nil || !lead.LastContact.Equal(*before.LastContact) {
		t.Errorf("last contact changed: %v", lead.LastContact)
	}
	if lead.TotalInteractions != before.TotalInteractions {
		t.Errorf("interactions = %d, want %d", lead.TotalInteractions, before.TotalInteractions)
	}

	// A follow-up does not reset the contact clock; the rule fires again on
	// the next pass until the lead actually responds.
	summary := f.eval.EvaluateAndAct(context.Background(), []domain.Lead{lead})
	if summary.MessagesSent != 1 || len(f.chat.sent) != 2 {
		t.Errorf("second pass: summary = %+v, sends = %d", summary, len(f.chat.sent))
	}
}

func TestEvaluateAndActSendsEmailForColdLead(t *testing.T) {
	f := newEvalFixture()
	lead := leadWith(10, 2, 10)
	propType := "piso"
	lead.Preferences.PropertyType = &propType

	summary := f.eval.EvaluateAndAct(context.Background(), []domain.Lead{lead})

	if summary.EmailsSent != 1 || summary.MessagesSent != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("emails = %d, want 1", len(f.mail.sent))
	}
	mail := f.mail.sent[0]
	if mail.to != lead.Email {
		t.Errorf("to = %q", mail.to)
	}
	if mail.subject != "Te echamos de menos — Inmobiliaria Horizonte" {
		t.Errorf("subject = %q", mail.subject)
	}
	if !strings.Contains(mail.body, "¿Sigues buscando piso?") {
		t.Errorf("body missing search question:\n%s", mail.body)
	}
}

func TestEvaluateAndActSkipsEmailWhenDisabled(t *testing.T) {
	f := newEvalFixture()
	f.eval = New(f.chat, nil, "Sofía", "Inmobiliaria Horizonte", logger.New("test"))
	f.eval.now = func() time.Time { return passTime }

	summary := f.eval.EvaluateAndAct(context.Background(), []domain.Lead{leadWith(10, 2, 10)})

	if summary.Processed != 1 || summary.Errors != 1 || summary.EmailsSent != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestEvaluateAndActIsolatesPerLeadFailures(t *testing.T) {
	f := newEvalFixture()
	noPhone := leadWith(70, 5, 2)
	noPhone.Phone = ""
	ok := leadWith(45, 4, 4)

	summary := f.eval.EvaluateAndAct(context.Background(), []domain.Lead{noPhone, ok})

	if summary.Processed != 2 || summary.Errors != 1 || summary.MessagesSent != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(f.chat.sent) != 1 || f.chat.sent[0].phone != ok.Phone {
		t.Errorf("sent = %v", f.chat.sent)
	}
}

func TestEvaluateAndActDeliveryErrorCounted(t *testing.T) {
	f := newEvalFixture()
	f.chat.err = errors.New("gateway down")

	summary := f.eval.EvaluateAndAct(context.Background(), []domain.Lead{leadWith(70, 5, 2)})

	if summary.Errors != 1 || summary.MessagesSent != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestMessageWithoutNameOrPreferences(t *testing.T) {
	f := newEvalFixture()
	lead := leadWith(45, 4, 4)
	lead.Name = ""

	f.eval.EvaluateAndAct(context.Background(), []domain.Lead{lead})

	if len(f.chat.sent) != 1 {
		t.Fatalf("sends = %d, want 1", len(f.chat.sent))
	}
	text := f.chat.sent[0].text
	if !strings.HasPrefix(text, "¡Hola!") {
		t.Errorf("greeting = %q", text)
	}
	if strings.Contains(text, " en  ") {
		t.Errorf("dangling zone fragment:\n%s", text)
	}
}
