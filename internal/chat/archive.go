package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ashureev/edubot/internal/domain"
	"github.com/ashureev/edubot/internal/store"
)

// DefaultArchiveKey is the key the serialized history is stored under.
const DefaultArchiveKey = "chatHistory"

// ArchiveKeyFor returns the history key for a browser device.
func ArchiveKeyFor(deviceID string) string {
	return DefaultArchiveKey + ":" + deviceID
}

// Archive is the durable, most-recent-first log of saved sessions.
// Entries are unique by session id.
type Archive struct {
	mu      sync.RWMutex
	kv      store.KV
	key     string
	logger  *slog.Logger
	entries []domain.ChatSession
}

// OpenArchive creates an archive over kv and loads the stored history once.
func OpenArchive(ctx context.Context, kv store.KV, key string, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		key = DefaultArchiveKey
	}
	a := &Archive{
		kv:      kv,
		key:     key,
		logger:  logger,
		entries: make([]domain.ChatSession, 0),
	}
	a.LoadAll(ctx)
	return a
}

// Key returns the storage key.
func (a *Archive) Key() string {
	return a.key
}

// LoadAll re-reads durable storage and returns the stored sessions.
// A missing key, unreadable storage or corrupt data yield an empty archive.
func (a *Archive) LoadAll(ctx context.Context) []domain.ChatSession {
	entries := a.read(ctx)

	a.mu.Lock()
	a.entries = entries
	a.mu.Unlock()

	return cloneSessions(entries)
}

func (a *Archive) read(ctx context.Context) []domain.ChatSession {
	empty := make([]domain.ChatSession, 0)

	data, ok, err := a.kv.Load(ctx, a.key)
	if err != nil {
		a.logger.Warn("Failed to read chat history, starting empty", "key", a.key, "error", err)
		return empty
	}
	if !ok {
		return empty
	}

	var entries []domain.ChatSession
	if err := json.Unmarshal(data, &entries); err != nil {
		a.logger.Warn("Chat history is corrupt, starting empty", "key", a.key, "error", err)
		return empty
	}
	return dedupe(entries)
}

// Entries returns a copy of the in-memory history, most recent first.
func (a *Archive) Entries() []domain.ChatSession {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneSessions(a.entries)
}

// Len returns the number of archived sessions.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// Find returns a copy of the archived session with the given id.
func (a *Archive) Find(id string) (domain.ChatSession, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, e := range a.entries {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return domain.ChatSession{}, false
}

// Save stores session at the front of the history, replacing any entry with
// the same id, and persists the full sequence. Sessions without messages are
// ignored. The in-memory history is updated even if persisting fails.
func (a *Archive) Save(ctx context.Context, session domain.ChatSession) error {
	if session.IsEmpty() {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	updated := make([]domain.ChatSession, 0, len(a.entries)+1)
	updated = append(updated, session.Clone())
	for _, e := range a.entries {
		if e.ID != session.ID {
			updated = append(updated, e)
		}
	}
	a.entries = updated

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode chat history: %w", err)
	}
	if err := a.kv.Save(ctx, a.key, data); err != nil {
		return fmt.Errorf("persist chat history: %w", err)
	}
	return nil
}

// dedupe keeps the first (most recent) entry for every id.
func dedupe(entries []domain.ChatSession) []domain.ChatSession {
	seen := make(map[string]struct{}, len(entries))
	out := make([]domain.ChatSession, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		if e.Messages == nil {
			e.Messages = make([]domain.ChatMessage, 0)
		}
		out = append(out, e)
	}
	return out
}

func cloneSessions(entries []domain.ChatSession) []domain.ChatSession {
	out := make([]domain.ChatSession, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
