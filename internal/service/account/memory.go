package account

import (
	"context"
	"sync"

	"github.com/zhouzirui/medibot/backend/internal/model/account"
)

// MemoryStore keeps users in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]account.User
	byEmail map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]account.User),
		byEmail: make(map[string]string),
	}
}

func (m *MemoryStore) Insert(_ context.Context, user account.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return ErrEmailTaken
	}
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *MemoryStore) GetByEmail(_ context.Context, email string) (account.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return account.User{}, ErrUserNotFound
	}
	return m.byID[id], nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (account.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.byID[id]
	if !ok {
		return account.User{}, ErrUserNotFound
	}
	return user, nil
}
