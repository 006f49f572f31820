package qualifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/conversation"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/reasoning"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/events"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"

	"github.com/google/uuid"
)

type fakeReasoner struct {
	reply string
	err   error
	calls int
}

func (f *fakeReasoner) Name() string { return "fake" }

func (f *fakeReasoner) Complete(_ context.Context, _ reasoning.Request) (*reasoning.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &reasoning.Result{Text: f.reply}, nil
}

type fakeConvStore struct {
	mu    sync.Mutex
	saved map[string]domain.Conversation
}

func (f *fakeConvStore) GetConversation(_ context.Context, leadID uuid.UUID, channel domain.Channel) (domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.saved[fmt.Sprintf("%s_%s", leadID, channel)]
	if !ok {
		return domain.Conversation{}, repository.ErrNotFound
	}
	return conv, nil
}

func (f *fakeConvStore) SaveConversation(_ context.Context, conv domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = make(map[string]domain.Conversation)
	}
	f.saved[fmt.Sprintf("%s_%s", conv.LeadID, conv.Channel)] = conv
	return nil
}

type fakeLeadWriter struct {
	updated []domain.Lead
	err     error
}

func (f *fakeLeadWriter) Create(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	return lead, nil
}

func (f *fakeLeadWriter) UpdateProfile(_ context.Context, lead domain.Lead) error {
	if f.err != nil {
		return f.err
	}
	f.updated = append(f.updated, lead)
	return nil
}

func (f *fakeLeadWriter) TouchContact(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

type fakeTaskWriter struct {
	mu    sync.Mutex
	tasks []domain.Task
}

func (f *fakeTaskWriter) CreateTask(_ context.Context, task domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return nil
}

type fixture struct {
	qualifier *Qualifier
	reasoner  *fakeReasoner
	leads     *fakeLeadWriter
	tasks     *fakeTaskWriter
	manager   *conversation.Manager
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()
	log := logger.New("development")
	reasoner := &fakeReasoner{reply: reply}
	leads := &fakeLeadWriter{}
	tasks := &fakeTaskWriter{}
	manager := conversation.New(&fakeConvStore{}, log, 0)

	return &fixture{
		qualifier: New(reasoner, manager, leads, tasks, events.NewInMemoryBus(log), log),
		reasoner:  reasoner,
		leads:     leads,
		tasks:     tasks,
		manager:   manager,
	}
}

func seedConversation(t *testing.T, f *fixture, leadID uuid.UUID, turns ...string) {
	t.Helper()
	ctx := context.Background()
	for i, content := range turns {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		if _, err := f.manager.Append(ctx, leadID, domain.ChannelWhatsApp, role, content); err != nil {
			t.Fatalf("seed conversation: %v", err)
		}
	}
}

func TestQualifyEmptyConversationIsNoop(t *testing.T) {
	f := newFixture(t, `{}`)
	lead := domain.Lead{ID: uuid.New(), Status: domain.StatusNew}

	got, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("Qualify() error = %v", err)
	}
	if f.reasoner.calls != 0 {
		t.Errorf("reasoner called %d times for empty conversation, want 0", f.reasoner.calls)
	}
	if len(f.leads.updated) != 0 {
		t.Errorf("profile persisted for empty conversation")
	}
	if got.Score != lead.Score {
		t.Errorf("score changed on empty conversation")
	}
}

func TestQualifyMergesAndScores(t *testing.T) {
	f := newFixture(t, `{"operation": "comprar", "zone": "Chamberí", "max_budget": 300000, "name": "Laura", "interest_level": "alto", "wants_visit": false, "wants_human_agent": false}`)
	lead := domain.Lead{ID: uuid.New(), Status: domain.StatusNew, TotalInteractions: 1}
	seedConversation(t, f, lead.ID, "busco piso para comprar en Chamberí, unos 300 mil", "claro, ¿cómo te llamas?")

	got, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("Qualify() error = %v", err)
	}

	if got.Name != "Laura" {
		t.Errorf("name = %q, want Laura", got.Name)
	}
	if got.Preferences.Zone == nil || *got.Preferences.Zone != "Chamberí" {
		t.Errorf("zone not merged: %+v", got.Preferences)
	}
	// zone 15 + budget 15 + operation 10 + name 5 + interest alto 10 = 55
	if got.Score != 55 {
		t.Errorf("score = %d, want 55", got.Score)
	}
	if got.Tier != domain.TierHot {
		t.Errorf("tier = %s, want hot", got.Tier)
	}
	// Lifecycle advances on the 50 and 75 score marks, not on tier entry.
	if got.Status != domain.StatusContacted {
		t.Errorf("status = %s, want contacted at score 55", got.Status)
	}
	if len(f.leads.updated) != 1 {
		t.Errorf("profile persisted %d times, want 1", len(f.leads.updated))
	}
}

func TestQualifyIsFillOnly(t *testing.T) {
	f := newFixture(t, `{"zone": "Vallecas", "name": "Carlos"}`)
	zone := "Chamberí"
	lead := domain.Lead{
		ID:          uuid.New(),
		Name:        "Laura",
		Status:      domain.StatusNew,
		Preferences: domain.Preferences{Zone: &zone},
	}
	seedConversation(t, f, lead.ID, "mejor en Vallecas")

	got, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("Qualify() error = %v", err)
	}
	if *got.Preferences.Zone != "Chamberí" {
		t.Errorf("zone overwritten to %q, fill-only violated", *got.Preferences.Zone)
	}
	if got.Name != "Laura" {
		t.Errorf("name overwritten to %q", got.Name)
	}
}

func TestQualifyCapturesExtendedPreferences(t *testing.T) {
	reply := `{"min_budget": 200000, "max_budget": 280000, "bathrooms": 2, "min_sqm": 90, "parking": true, "notes": "quiere terraza orientada al sur"}`
	f := newFixture(t, reply)
	lead := domain.Lead{ID: uuid.New(), Status: domain.StatusNew}
	seedConversation(t, f, lead.ID, "entre 200 y 280 mil, dos baños, mínimo 90 metros, con garaje y terraza al sur")

	got, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("Qualify() error = %v", err)
	}

	p := got.Preferences
	if p.MinBudget == nil || *p.MinBudget != 200000 {
		t.Errorf("min budget not merged: %+v", p.MinBudget)
	}
	if p.MaxBudget == nil || *p.MaxBudget != 280000 {
		t.Errorf("max budget not merged: %+v", p.MaxBudget)
	}
	if p.Bathrooms == nil || *p.Bathrooms != 2 {
		t.Errorf("bathrooms not merged: %+v", p.Bathrooms)
	}
	if p.MinSqm == nil || *p.MinSqm != 90 {
		t.Errorf("min sqm not merged: %+v", p.MinSqm)
	}
	if p.Parking == nil || !*p.Parking {
		t.Errorf("parking not merged: %+v", p.Parking)
	}
	if p.Notes == nil || *p.Notes != "quiere terraza orientada al sur" {
		t.Errorf("notes not merged: %+v", p.Notes)
	}
	// Only the budget contributes to the score; the secondary fields refine
	// the catalog search without inflating qualification.
	if got.Score != 15 {
		t.Errorf("score = %d, want 15", got.Score)
	}
}

func TestQualifyUnparseableOutputLeavesLeadUnchanged(t *testing.T) {
	f := newFixture(t, `lo siento, no puedo extraer datos`)
	lead := domain.Lead{ID: uuid.New(), Status: domain.StatusNew}
	seedConversation(t, f, lead.ID, "hola")

	got, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("Qualify() error = %v, want nil", err)
	}
	if got.Score != 0 || len(f.leads.updated) != 0 {
		t.Errorf("lead changed despite unparseable extraction")
	}
}

func TestQualifyStripsCodeFences(t *testing.T) {
	f := newFixture(t, "```json\n{\"zone\": \"Centro\"}\n```")
	lead := domain.Lead{ID: uuid.New(), Status: domain.StatusNew}
	seedConversation(t, f, lead.ID, "algo en el centro")

	got, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("Qualify() error = %v", err)
	}
	if got.Preferences.Zone == nil || *got.Preferences.Zone != "Centro" {
		t.Errorf("fenced JSON not parsed: %+v", got.Preferences)
	}
}

func TestQualifyReasoningFailureIsNoop(t *testing.T) {
	f := newFixture(t, "")
	f.reasoner.err = errors.New("provider down")
	lead := domain.Lead{ID: uuid.New(), Status: domain.StatusNew}
	seedConversation(t, f, lead.ID, "hola")

	got, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("Qualify() error = %v, want nil", err)
	}
	if got.Score != 0 || len(f.leads.updated) != 0 {
		t.Errorf("lead changed despite reasoning failure")
	}
}

func TestQualifyHotCrossingCreatesTaskOnce(t *testing.T) {
	reply := `{"operation": "comprar", "zone": "Chamberí", "max_budget": 300000, "property_type": "piso", "urgency": "inmediata", "name": "Laura"}`
	f := newFixture(t, reply)
	lead := domain.Lead{ID: uuid.New(), Status: domain.StatusNew, TotalInteractions: 1}
	seedConversation(t, f, lead.ID, "quiero comprar ya un piso en Chamberí por 300 mil, soy Laura")

	got, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("Qualify() error = %v", err)
	}
	if got.Tier != domain.TierHot && got.Tier != domain.TierReady {
		t.Fatalf("tier = %s, want hot or ready (score %d)", got.Tier, got.Score)
	}

	hotTasks := countTasks(f.tasks, domain.TaskTypeHotLead)
	if hotTasks != 1 {
		t.Fatalf("hot lead tasks = %d, want 1", hotTasks)
	}

	// A second pass over the same transcript stays hot and must not create a
	// duplicate task.
	if _, err := f.qualifier.Qualify(context.Background(), got, domain.ChannelWhatsApp); err != nil {
		t.Fatalf("second Qualify() error = %v", err)
	}
	if got := countTasks(f.tasks, domain.TaskTypeHotLead); got != 1 {
		t.Errorf("hot lead tasks after rerun = %d, want 1", got)
	}
}

func TestQualifyWantsHumanCreatesUrgentTask(t *testing.T) {
	f := newFixture(t, `{"wants_human_agent": true}`)
	lead := domain.Lead{ID: uuid.New(), Status: domain.StatusNew, Phone: "+34600111222"}
	seedConversation(t, f, lead.ID, "quiero hablar con una persona")

	if _, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp); err != nil {
		t.Fatalf("Qualify() error = %v", err)
	}
	if got := countTasks(f.tasks, domain.TaskTypeHandoff); got != 1 {
		t.Errorf("handoff tasks = %d, want 1", got)
	}
	f.tasks.mu.Lock()
	defer f.tasks.mu.Unlock()
	for _, task := range f.tasks.tasks {
		if task.Type == domain.TaskTypeHandoff && task.Priority != domain.TaskPriorityUrgent {
			t.Errorf("handoff task priority = %s, want urgent", task.Priority)
		}
	}
}

func TestQualifyPersistFailureReturnsOriginal(t *testing.T) {
	f := newFixture(t, `{"zone": "Centro"}`)
	f.leads.err = errors.New("db down")
	lead := domain.Lead{ID: uuid.New(), Status: domain.StatusNew}
	seedConversation(t, f, lead.ID, "algo en el centro")

	got, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp)
	if err == nil {
		t.Fatal("Qualify() error = nil, want persist error")
	}
	if got.Preferences.Zone != nil {
		t.Errorf("returned lead carries unpersisted changes")
	}
}

func TestQualifyIsIdempotent(t *testing.T) {
	f := newFixture(t, `{"operation": "alquilar", "zone": "Sol", "interest_level": "medio"}`)
	lead := domain.Lead{ID: uuid.New(), Status: domain.StatusNew}
	seedConversation(t, f, lead.ID, "busco alquiler por Sol")

	first, err := f.qualifier.Qualify(context.Background(), lead, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("Qualify() error = %v", err)
	}
	second, err := f.qualifier.Qualify(context.Background(), first, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("second Qualify() error = %v", err)
	}
	if first.Score != second.Score || first.Tier != second.Tier || first.Status != second.Status {
		t.Errorf("rerun diverged: first %d/%s/%s, second %d/%s/%s",
			first.Score, first.Tier, first.Status, second.Score, second.Tier, second.Status)
	}
}

func countTasks(w *fakeTaskWriter, taskType string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, task := range w.tasks {
		if task.Type == taskType {
			n++
		}
	}
	return n
}

func TestSummaryListsMissingFields(t *testing.T) {
	zone := "Chamberí"
	lead := domain.Lead{
		Name:        "Laura",
		Channel:     domain.ChannelWhatsApp,
		Status:      domain.StatusContacted,
		Score:       35,
		Tier:        domain.TierWarm,
		Preferences: domain.Preferences{Zone: &zone},
	}

	text := Summary(lead)
	for _, fragment := range []string{"Laura", "35/100", "Chamberí", "Falta por averiguar", "presupuesto"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("Summary() missing %q in:\n%s", fragment, text)
		}
	}
}
