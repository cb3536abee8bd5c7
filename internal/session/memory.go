package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore holds session ids in a map protected by a RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // value = expiry timestamp
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryStore) Put(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be > 0")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = m.now().Add(ttl)
	return nil
}

func (m *MemoryStore) Consume(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[id]
	if !ok {
		return false, &SessionMissingError{ID: id}
	}
	delete(m.entries, id)
	if !m.now().Before(exp) {
		return false, &SessionExpiredError{ID: id, Expiry: exp}
	}
	return true, nil
}

func (m *MemoryStore) Exists(ctx context.Context, id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.entries[id]
	return ok && m.now().Before(exp)
}

func (m *MemoryStore) Expire(ctx context.Context) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, exp := range m.entries {
		if !now.Before(exp) {
			slog.Debug("Pruning expired session")
			delete(m.entries, k)
		}
	}
	return nil
}
