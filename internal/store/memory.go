package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryKV implements KV in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Load returns a copy of the value stored under key.
func (m *MemoryKV) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Save stores a copy of value under key.
func (m *MemoryKV) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Close is a no-op.
func (m *MemoryKV) Close() error { return nil }

// Backend names accepted by OpenKV.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// OpenKV opens the key-value backend named by backend at path.
func OpenKV(backend, path string) (KV, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteKV(path)
	case BackendBolt:
		return NewBoltKV(path)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

var _ KV = (*MemoryKV)(nil)
