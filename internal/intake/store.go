package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// SessionStore persists sessions between actions. Load returns nil, nil for
// an unknown id.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
}

// MemorySessionStore keeps sessions in process. Stored values are copied so
// callers never share a *Session with the store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]byte)}
}

func (m *MemorySessionStore) Save(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("intake session: id required")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("intake session: marshal: %w", err)
	}
	m.mu.Lock()
	m.sessions[s.ID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("intake session: unmarshal: %w", err)
	}
	return &s, nil
}
