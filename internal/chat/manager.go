// Package chat implements the client-side chat session lifecycle: the active
// session manager, the history archive and the message dispatcher.
package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/edubot/internal/domain"
)

// State is the lifecycle state of the active session.
type State int

const (
	// StateIdle means the session has no messages yet.
	StateIdle State = iota
	// StateActive means the session holds at least one message.
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// View is a copy of the manager's observable state.
type View struct {
	ID       string
	State    State
	Pending  bool
	Messages []domain.ChatMessage
}

// Listener is notified after every state change.
type Listener func(View)

// Manager owns the single active chat session. All mutators are serialized
// by one mutex; listeners run after it is released.
type Manager struct {
	mu       sync.Mutex
	archive  *Archive
	id       string
	messages []domain.ChatMessage
	pending  bool

	now   func() time.Time
	newID func() string

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides how session ids are allocated.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// NewManager creates a manager bound to archive and starts a new chat.
// archive may be nil, in which case LoadChat never finds anything.
func NewManager(archive *Archive, opts ...Option) *Manager {
	m := &Manager{
		archive:   archive,
		now:       time.Now,
		newID:     NewSessionID,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.id = m.newID()
	m.messages = make([]domain.ChatMessage, 0)
	return m
}

// NewSessionID allocates a time-ordered unique session id.
func NewSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Archive returns the archive the manager loads from.
func (m *Manager) Archive() *Archive {
	return m.archive
}

// Subscribe registers fn for state changes and returns a function that removes it.
func (m *Manager) Subscribe(fn Listener) func() {
	m.listenersMu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	m.listenersMu.Unlock()

	return func() {
		m.listenersMu.Lock()
		delete(m.listeners, id)
		m.listenersMu.Unlock()
	}
}

// ID returns the active session id.
func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// State returns StateActive if the session has messages.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return stateOf(m.messages)
}

// Pending reports whether a remote exchange is in flight.
func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Messages returns a copy of the active message sequence.
func (m *Manager) Messages() []domain.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneMessages(m.messages)
}

// View returns a copy of the observable state.
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// StartNewChat discards the active session and begins an empty one.
// Any snapshot already archived is left untouched.
func (m *Manager) StartNewChat() string {
	m.mu.Lock()
	m.id = m.newID()
	m.messages = make([]domain.ChatMessage, 0)
	id := m.id
	v := m.viewLocked()
	m.mu.Unlock()

	m.notify(v)
	return id
}

// LoadChat makes the archived session with the given id active.
// Unknown ids are ignored.
func (m *Manager) LoadChat(id string) {
	if m.archive == nil {
		return
	}
	snap, ok := m.archive.Find(id)
	if !ok {
		return
	}

	m.mu.Lock()
	m.id = snap.ID
	m.messages = domain.CloneMessages(snap.Messages)
	v := m.viewLocked()
	m.mu.Unlock()

	m.notify(v)
}

// AppendUserMessage appends text as a user message. Empty or whitespace-only
// text is rejected and false is returned.
func (m *Manager) AppendUserMessage(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	m.appendMessage(text, domain.SenderUser)
	return true
}

// AppendBotMessage appends text as a bot message.
func (m *Manager) AppendBotMessage(text string) {
	m.appendMessage(text, domain.SenderBot)
}

// Snapshot copies the active session for archiving.
func (m *Manager) Snapshot() domain.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.ChatSession{
		ID:       m.id,
		Title:    domain.DeriveTitle(m.messages),
		Messages: domain.CloneMessages(m.messages),
		SavedAt:  m.now(),
	}
}

func (m *Manager) appendMessage(text string, sender domain.Sender) {
	m.mu.Lock()
	m.messages = append(m.messages, domain.ChatMessage{
		Text:      text,
		Sender:    sender,
		Timestamp: m.now(),
	})
	v := m.viewLocked()
	m.mu.Unlock()

	m.notify(v)
}

func (m *Manager) setPending(pending bool) {
	m.mu.Lock()
	if m.pending == pending {
		m.mu.Unlock()
		return
	}
	m.pending = pending
	v := m.viewLocked()
	m.mu.Unlock()

	m.notify(v)
}

func (m *Manager) viewLocked() View {
	return View{
		ID:       m.id,
		State:    stateOf(m.messages),
		Pending:  m.pending,
		Messages: domain.CloneMessages(m.messages),
	}
}

func (m *Manager) notify(v View) {
	m.listenersMu.Lock()
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func stateOf(messages []domain.ChatMessage) State {
	if len(messages) == 0 {
		return StateIdle
	}
	return StateActive
}
