package exam

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu       sync.Mutex
	attempts map[string]Attempt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{attempts: map[string]Attempt{}}
}

func (m *MemoryStore) Create(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = a
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *MemoryStore) MarkSubmitted(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok || a.Status != StatusInProgress {
		return false, nil
	}
	a.Status = StatusSubmitted
	m.attempts[id] = a
	return true, nil
}

func (m *MemoryStore) MarkExpired(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.attempts[id]; ok && a.Status == StatusInProgress {
		a.Status = StatusExpired
		m.attempts[id] = a
	}
	return nil
}
