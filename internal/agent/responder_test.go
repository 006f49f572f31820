package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/reasoning"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

// scriptedReasoner replays a fixed sequence of turns; each call consumes one.
type scriptedReasoner struct {
	turns []scriptedTurn
	calls []reasoning.Request
}

type scriptedTurn struct {
	result *reasoning.Result
	err    error
}

func (s *scriptedReasoner) Name() string { return "scripted" }

func (s *scriptedReasoner) Complete(_ context.Context, req reasoning.Request) (*reasoning.Result, error) {
	s.calls = append(s.calls, req)
	if len(s.turns) == 0 {
		return &reasoning.Result{Text: "sin guion"}, nil
	}
	turn := s.turns[0]
	s.turns = s.turns[1:]
	return turn.result, turn.err
}

type fakeCatalog struct {
	results []domain.Property
	byRef   map[string]domain.Property
	err     error
}

func (f *fakeCatalog) Search(_ context.Context, _ repository.PropertyCriteria) ([]domain.Property, error) {
	return f.results, f.err
}

func (f *fakeCatalog) ByReference(_ context.Context, ref string) (domain.Property, error) {
	prop, ok := f.byRef[strings.ToUpper(ref)]
	if !ok {
		return domain.Property{}, errors.New("not found")
	}
	return prop, nil
}

type fakeBooker struct {
	slots   []time.Time
	bookErr error
	booked  []time.Time
}

func (f *fakeBooker) AvailableSlots(_ context.Context, _ time.Time) ([]time.Time, error) {
	return f.slots, nil
}

func (f *fakeBooker) Book(_ context.Context, _ domain.Lead, _ string, at time.Time) (domain.Appointment, error) {
	if f.bookErr != nil {
		return domain.Appointment{}, f.bookErr
	}
	f.booked = append(f.booked, at)
	return domain.Appointment{ScheduledAt: at, Status: domain.AppointmentConfirmed}, nil
}

type fakeHandoff struct {
	reasons []string
	reply   string
}

func (f *fakeHandoff) Request(_ context.Context, _ domain.Lead, reason, _, _ string) string {
	f.reasons = append(f.reasons, reason)
	return f.reply
}

type responderFixture struct {
	reasoner *scriptedReasoner
	catalog  *fakeCatalog
	booker   *fakeBooker
	handoff  *fakeHandoff
	slept    []time.Duration
	resp     *Responder
}

func newResponderFixture(t *testing.T, turns ...scriptedTurn) *responderFixture {
	t.Helper()
	f := &responderFixture{
		reasoner: &scriptedReasoner{turns: turns},
		catalog:  &fakeCatalog{byRef: map[string]domain.Property{}},
		booker:   &fakeBooker{},
		handoff:  &fakeHandoff{reply: "Te paso con un compañero."},
	}
	f.resp = NewResponder(f.reasoner, f.catalog, f.booker, f.handoff, Config{
		AgentName:   "Sofía",
		CompanyName: "Inmobiliaria Horizonte",
		MaxRounds:   3,
	}, logger.New("test"))
	f.resp.sleep = func(d time.Duration) { f.slept = append(f.slept, d) }
	return f
}

func testLead() domain.Lead {
	return domain.Lead{
		ID:      uuid.New(),
		Phone:   "+34600111222",
		Name:    "Carmen Ruiz",
		Channel: domain.ChannelWhatsApp,
		Status:  domain.StatusNew,
		Tier:    domain.TierCold,
	}
}

func textTurn(text string) scriptedTurn {
	return scriptedTurn{result: &reasoning.Result{Text: text}}
}

func toolTurn(calls ...reasoning.ToolCall) scriptedTurn {
	return scriptedTurn{result: &reasoning.Result{ToolCalls: calls}}
}

func TestRespondPlainText(t *testing.T) {
	f := newResponderFixture(t, textTurn("¡Hola! ¿En qué zona estás buscando?"))

	reply := f.resp.Respond(context.Background(), RespondInput{Lead: testLead(), Message: "Hola"})

	if reply != "¡Hola! ¿En qué zona estás buscando?" {
		t.Fatalf("reply = %q", reply)
	}
	if len(f.reasoner.calls) != 1 {
		t.Fatalf("reasoner calls = %d, want 1", len(f.reasoner.calls))
	}
}

func TestRespondIncludesQualificationState(t *testing.T) {
	f := newResponderFixture(t, textTurn("ok"))

	f.resp.Respond(context.Background(), RespondInput{Lead: testLead(), Message: "Hola"})

	req := f.reasoner.calls[0]
	if req.Messages[0].Role != reasoning.RoleSystem {
		t.Fatalf("first message role = %q, want system", req.Messages[0].Role)
	}
	system := req.Messages[0].Content
	for _, want := range []string{"Sofía", "Inmobiliaria Horizonte", "Estado de Cualificación"} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if len(req.Tools) != len(agentTools) {
		t.Errorf("tools sent = %d, want %d", len(req.Tools), len(agentTools))
	}
}

func TestRespondHistoryPrecedesUserMessage(t *testing.T) {
	f := newResponderFixture(t, textTurn("ok"))

	history := []reasoning.Message{
		{Role: reasoning.RoleUser, Content: "Busco piso"},
		{Role: reasoning.RoleAssistant, Content: "¿En qué zona?"},
	}
	f.resp.Respond(context.Background(), RespondInput{Lead: testLead(), Message: "En Chamberí", History: history})

	msgs := f.reasoner.calls[0].Messages
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want 4", len(msgs))
	}
	if msgs[1].Content != "Busco piso" || msgs[2].Content != "¿En qué zona?" {
		t.Errorf("history out of order: %q, %q", msgs[1].Content, msgs[2].Content)
	}
	last := msgs[len(msgs)-1]
	if last.Role != reasoning.RoleUser || last.Content != "En Chamberí" {
		t.Errorf("last message = %+v", last)
	}
}

func TestRespondToolRoundThenText(t *testing.T) {
	f := newResponderFixture(t,
		toolTurn(reasoning.ToolCall{ID: "c1", Name: actionSearchProperties, Arguments: `{"zone":"Centro","operation":"comprar"}`}),
		textTurn("Tengo una opción en el Centro."),
	)
	f.catalog.results = []domain.Property{{
		Reference: "REF-001",
		Title:     "Piso en Centro",
		Operation: "venta",
		Price:     250000,
		Zone:      "Centro",
	}}

	reply := f.resp.Respond(context.Background(), RespondInput{Lead: testLead(), Message: "Busco piso en el centro"})

	if reply != "Tengo una opción en el Centro." {
		t.Fatalf("reply = %q", reply)
	}
	if len(f.reasoner.calls) != 2 {
		t.Fatalf("reasoner calls = %d, want 2", len(f.reasoner.calls))
	}

	// The second call must carry the assistant tool request and the tool result.
	msgs := f.reasoner.calls[1].Messages
	assistant := msgs[len(msgs)-2]
	toolMsg := msgs[len(msgs)-1]
	if assistant.Role != reasoning.RoleAssistant || len(assistant.ToolCalls) != 1 {
		t.Errorf("assistant turn = %+v", assistant)
	}
	if toolMsg.Role != reasoning.RoleTool || toolMsg.ToolCallID != "c1" {
		t.Errorf("tool result = %+v", toolMsg)
	}
	if !strings.Contains(toolMsg.Content, "REF-001") {
		t.Errorf("tool result missing listing: %q", toolMsg.Content)
	}
}

func TestRespondRoundBudgetExhausted(t *testing.T) {
	call := reasoning.ToolCall{ID: "c1", Name: actionCheckAvailability, Arguments: `{"date":"2030-06-10"}`}
	f := newResponderFixture(t, toolTurn(call), toolTurn(call), toolTurn(call))

	reply := f.resp.Respond(context.Background(), RespondInput{Lead: testLead(), Message: "hola"})

	if reply != fallbackProcessing {
		t.Fatalf("reply = %q, want processing fallback", reply)
	}
	if len(f.reasoner.calls) != 3 {
		t.Fatalf("reasoner calls = %d, want 3", len(f.reasoner.calls))
	}
}

func TestRespondRetriesTransientThenSucceeds(t *testing.T) {
	f := newResponderFixture(t,
		scriptedTurn{err: &reasoning.TransientError{Err: errors.New("upstream 503")}},
		scriptedTurn{err: reasoning.ErrRateLimited},
		textTurn("listo"),
	)

	reply := f.resp.Respond(context.Background(), RespondInput{Lead: testLead(), Message: "hola"})

	if reply != "listo" {
		t.Fatalf("reply = %q", reply)
	}
	if len(f.slept) != 2 {
		t.Fatalf("backoff sleeps = %d, want 2", len(f.slept))
	}
	if f.slept[0] != time.Second || f.slept[1] != 2*time.Second {
		t.Errorf("backoff = %v, want [1s 2s]", f.slept)
	}
}

func TestRespondApologyAfterExhaustedRetries(t *testing.T) {
	fail := scriptedTurn{err: reasoning.ErrRateLimited}
	f := newResponderFixture(t, fail, fail, fail)

	reply := f.resp.Respond(context.Background(), RespondInput{Lead: testLead(), Message: "hola"})

	if reply != fallbackApology {
		t.Fatalf("reply = %q, want apology fallback", reply)
	}
	if len(f.reasoner.calls) != 3 {
		t.Fatalf("attempts = %d, want 3", len(f.reasoner.calls))
	}
}

func TestRespondNonRetryableFailsFast(t *testing.T) {
	f := newResponderFixture(t, scriptedTurn{err: errors.New("invalid api key")})

	reply := f.resp.Respond(context.Background(), RespondInput{Lead: testLead(), Message: "hola"})

	if reply != fallbackApology {
		t.Fatalf("reply = %q, want apology fallback", reply)
	}
	if len(f.reasoner.calls) != 1 {
		t.Fatalf("attempts = %d, want 1 for non-retryable error", len(f.reasoner.calls))
	}
	if len(f.slept) != 0 {
		t.Errorf("slept %v, want no backoff", f.slept)
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	f := newResponderFixture(t)

	out := f.resp.dispatch(context.Background(), testLead(), "hola", reasoning.ToolCall{Name: "send_fax"})

	if out != "Función send_fax no implementada." {
		t.Fatalf("out = %q", out)
	}
}

func TestDispatchPropertyDetails(t *testing.T) {
	f := newResponderFixture(t)
	f.catalog.byRef["REF-007"] = domain.Property{Reference: "REF-007", Title: "Ático en Salamanca", Price: 480000, Operation: "venta"}

	got := f.resp.dispatch(context.Background(), testLead(), "", reasoning.ToolCall{
		Name: actionGetPropertyDetails, Arguments: `{"reference":"ref-007"}`,
	})
	if !strings.Contains(got, "Ático en Salamanca") {
		t.Errorf("details = %q", got)
	}

	miss := f.resp.dispatch(context.Background(), testLead(), "", reasoning.ToolCall{
		Name: actionGetPropertyDetails, Arguments: `{"reference":"REF-999"}`,
	})
	if miss != "No se encontró la propiedad con referencia REF-999." {
		t.Errorf("miss = %q", miss)
	}
}

func TestDispatchScheduleVisit(t *testing.T) {
	f := newResponderFixture(t)

	out := f.resp.dispatch(context.Background(), testLead(), "", reasoning.ToolCall{
		Name:      actionScheduleVisit,
		Arguments: `{"property_reference":"REF-001","preferred_date":"2030-06-10","preferred_time":"11:00"}`,
	})
	if !strings.Contains(out, "✅ Visita agendada") || !strings.Contains(out, "2030-06-10") {
		t.Errorf("out = %q", out)
	}
	if len(f.booker.booked) != 1 {
		t.Fatalf("booked = %d, want 1", len(f.booker.booked))
	}

	badFormat := f.resp.dispatch(context.Background(), testLead(), "", reasoning.ToolCall{
		Name:      actionScheduleVisit,
		Arguments: `{"property_reference":"REF-001","preferred_date":"lunes","preferred_time":"por la mañana"}`,
	})
	if badFormat != "Formato de fecha/hora no válido. Usa YYYY-MM-DD y HH:MM." {
		t.Errorf("badFormat = %q", badFormat)
	}

	f.booker.bookErr = errors.New("slot taken")
	taken := f.resp.dispatch(context.Background(), testLead(), "", reasoning.ToolCall{
		Name:      actionScheduleVisit,
		Arguments: `{"property_reference":"REF-001","preferred_date":"2030-06-10","preferred_time":"11:00"}`,
	})
	if taken != "No se pudo agendar la visita. Puede que el horario no esté disponible." {
		t.Errorf("taken = %q", taken)
	}
}

func TestDispatchMortgage(t *testing.T) {
	f := newResponderFixture(t)

	out := f.resp.dispatch(context.Background(), testLead(), "", reasoning.ToolCall{
		Name: actionCalculateMortgage, Arguments: `{"price":300000}`,
	})
	if !strings.Contains(out, "Hipoteca") && !strings.Contains(out, "hipoteca") {
		t.Errorf("out = %q", out)
	}

	noPrice := f.resp.dispatch(context.Background(), testLead(), "", reasoning.ToolCall{
		Name: actionCalculateMortgage, Arguments: `{}`,
	})
	if noPrice != "Necesito el precio del inmueble para calcular la hipoteca." {
		t.Errorf("noPrice = %q", noPrice)
	}
}

func TestDispatchTransferToHuman(t *testing.T) {
	f := newResponderFixture(t)

	out := f.resp.dispatch(context.Background(), testLead(), "quiero hablar con alguien", reasoning.ToolCall{
		Name: actionTransferToHuman, Arguments: `{"reason":"negociacion","summary":"quiere hacer una oferta"}`,
	})
	if out != "Te paso con un compañero." {
		t.Fatalf("out = %q", out)
	}
	if len(f.handoff.reasons) != 1 || f.handoff.reasons[0] != "negociacion" {
		t.Errorf("reasons = %v", f.handoff.reasons)
	}

	// Malformed arguments still escalate, with a generic reason.
	f.resp.dispatch(context.Background(), testLead(), "ayuda", reasoning.ToolCall{
		Name: actionTransferToHuman, Arguments: `{broken`,
	})
	if f.handoff.reasons[1] != "otro" {
		t.Errorf("fallback reason = %q, want otro", f.handoff.reasons[1])
	}
}

func TestDispatchMalformedSearchArgs(t *testing.T) {
	f := newResponderFixture(t)

	out := f.resp.dispatch(context.Background(), testLead(), "", reasoning.ToolCall{
		Name: actionSearchProperties, Arguments: `{"zone":`,
	})
	if !strings.Contains(out, "no válidos") {
		t.Errorf("out = %q", out)
	}
}

func TestNormalizeOperation(t *testing.T) {
	cases := map[string]string{
		"comprar":  "venta",
		"Compra":   "venta",
		"alquilar": "alquiler",
		"ALQUILER": "alquiler",
		"":         "",
		"permuta":  "",
	}
	for in, want := range cases {
		if got := normalizeOperation(in); got != want {
			t.Errorf("normalizeOperation(%q) = %q, want %q", in, got, want)
		}
	}
}
