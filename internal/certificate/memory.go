package certificate

import (
	"context"
	"sync"
)

// MemoryStore enforces the same (learner, course) uniqueness as the SQL
// store under a single mutex.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[string]Certificate
	byPair map[pairKey]string
}

type pairKey struct{ learner, course string }

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]Certificate{}, byPair: map[pairKey]string{}}
}

func (m *MemoryStore) Insert(_ context.Context, c Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey{c.LearnerID, c.CourseID}
	if _, exists := m.byPair[k]; exists {
		return ErrDuplicate
	}
	m.byPair[k] = c.ID
	m.byID[c.ID] = c
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return Certificate{}, ErrNotFound
	}
	return c, nil
}
