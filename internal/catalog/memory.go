package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Reader for tests and seeding.
type MemoryStore struct {
	mu      sync.RWMutex
	courses map[string]Course
	lessons map[string][]Lesson // courseID -> lessons
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courses: map[string]Course{},
		lessons: map[string][]Lesson{},
	}
}

func (m *MemoryStore) Snapshot(_ context.Context, courseID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[courseID]
	if !ok {
		return Snapshot{}, ErrCourseNotFound
	}
	ls := make([]Lesson, len(m.lessons[courseID]))
	copy(ls, m.lessons[courseID])
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].Position < ls[j].Position })
	return Snapshot{Course: c, Lessons: ls}, nil
}

func (m *MemoryStore) PutCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
	return nil
}

func (m *MemoryStore) PutLesson(_ context.Context, l Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ls := m.lessons[l.CourseID]
	for i := range ls {
		if ls[i].ID == l.ID {
			ls[i] = l
			return nil
		}
	}
	m.lessons[l.CourseID] = append(ls, l)
	return nil
}
