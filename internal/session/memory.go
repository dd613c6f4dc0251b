package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	userID  string
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Expired entries are dropped on lookup,
// and Create sweeps the whole map at most once per ttl.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]entry
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

// NewMemoryStore creates a store whose sessions live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, userID string) (string, error) {
	token := uuid.NewString()
	now := m.now()
	m.mu.Lock()
	if !now.Before(m.nextSweep) {
		m.sweepLocked(now)
		m.nextSweep = now.Add(m.ttl)
	}
	m.sessions[token] = entry{userID: userID, expires: now.Add(m.ttl)}
	m.mu.Unlock()
	return token, nil
}

func (m *MemoryStore) sweepLocked(now time.Time) {
	for token, e := range m.sessions {
		if !now.Before(e.expires) {
			delete(m.sessions, token)
		}
	}
}

func (m *MemoryStore) Lookup(_ context.Context, token string) (string, error) {
	m.mu.RLock()
	e, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	if !m.now().Before(e.expires) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return "", ErrNotFound
	}
	return e.userID, nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}
