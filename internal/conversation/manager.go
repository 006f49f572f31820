// Package conversation manages bounded conversation context per lead and
// channel: an in-memory cache backed by whole-document persistence, plus the
// windowed view handed to the reasoning service.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/reasoning"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"

	"github.com/google/uuid"
)

// DefaultWindow is the number of trailing messages sent to the reasoning
// service. Older history stays persisted but out of the prompt.
const DefaultWindow = 20

// Manager caches conversations keyed by (lead, channel) and serializes turns
// on the same key within the process.
type Manager struct {
	store  repository.ConversationStore
	log    *logger.Logger
	window int

	mu    sync.Mutex
	cache map[string]*domain.Conversation
	locks map[string]*sync.Mutex

	now func() time.Time
}

// New creates a conversation manager. A window of 0 uses DefaultWindow.
func New(store repository.ConversationStore, log *logger.Logger, window int) *Manager {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Manager{
		store:  store,
		log:    log,
		window: window,
		cache:  make(map[string]*domain.Conversation),
		locks:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

func key(leadID uuid.UUID, channel domain.Channel) string {
	return fmt.Sprintf("%s_%s", leadID, channel)
}

// Acquire locks the conversation key for one full agent turn and returns the
// release function. Concurrent turns for the same lead and channel serialize
// here; different keys proceed independently.
func (m *Manager) Acquire(leadID uuid.UUID, channel domain.Channel) func() {
	m.mu.Lock()
	lock, ok := m.locks[key(leadID, channel)]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key(leadID, channel)] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// GetOrCreate returns the cached conversation, loading it from the store on a
// cache miss and starting an empty one if none was ever persisted.
func (m *Manager) GetOrCreate(ctx context.Context, leadID uuid.UUID, channel domain.Channel) (*domain.Conversation, error) {
	m.mu.Lock()
	if conv, ok := m.cache[key(leadID, channel)]; ok {
		m.mu.Unlock()
		return conv, nil
	}
	m.mu.Unlock()

	stored, err := m.store.GetConversation(ctx, leadID, channel)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		stored = domain.Conversation{
			ID:      uuid.New(),
			LeadID:  leadID,
			Channel: channel,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another goroutine may have loaded it while we hit the store.
	if conv, ok := m.cache[key(leadID, channel)]; ok {
		return conv, nil
	}
	conv := &stored
	m.cache[key(leadID, channel)] = conv
	return conv, nil
}

// Append records a message and persists the whole message list. A persistence
// failure is logged and the in-memory append stands, so one flaky write never
// loses the live conversation.
func (m *Manager) Append(ctx context.Context, leadID uuid.UUID, channel domain.Channel, role domain.Role, content string) (*domain.Conversation, error) {
	conv, err := m.GetOrCreate(ctx, leadID, channel)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	conv.Append(role, content, m.now())
	snapshot := *conv
	snapshot.Messages = append([]domain.Message(nil), conv.Messages...)
	m.mu.Unlock()

	if err := m.store.SaveConversation(ctx, snapshot); err != nil {
		m.log.PersistenceInconsistency("conversation", key(leadID, channel), err)
	}
	return conv, nil
}

// WindowedHistory converts the trailing window of the conversation into
// prompt messages. When excludeTrailingInbound is set, a final user message
// is dropped because the caller passes that same turn separately.
func (m *Manager) WindowedHistory(conv *domain.Conversation, excludeTrailingInbound bool) []reasoning.Message {
	m.mu.Lock()
	messages := append([]domain.Message(nil), conv.Messages...)
	m.mu.Unlock()

	if excludeTrailingInbound && len(messages) > 0 && messages[len(messages)-1].Role == domain.RoleUser {
		messages = messages[:len(messages)-1]
	}
	if len(messages) > m.window {
		messages = messages[len(messages)-m.window:]
	}

	history := make([]reasoning.Message, 0, len(messages))
	for _, msg := range messages {
		role := reasoning.RoleUser
		if msg.Role == domain.RoleAssistant {
			role = reasoning.RoleAssistant
		}
		history = append(history, reasoning.Message{Role: role, Content: msg.Content})
	}
	return history
}

// FullText renders the entire conversation as a labeled transcript for the
// extraction pass. Unlike the prompt window this includes every message.
func (m *Manager) FullText(conv *domain.Conversation) string {
	m.mu.Lock()
	messages := append([]domain.Message(nil), conv.Messages...)
	m.mu.Unlock()

	var b strings.Builder
	for _, msg := range messages {
		label := "Cliente"
		if msg.Role == domain.RoleAssistant {
			label = "Asistente"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
