package progress

import (
	"context"
	"sync"
	"time"

	"github.com/moiseiyaa/iremeHub-lms/internal/enrollment"
)

// MemoryStore mirrors the SQL store's atomic semantics behind one mutex,
// for tests and offline use.
type MemoryStore struct {
	mu      sync.Mutex
	records map[recordKey]*Record
}

type recordKey struct{ learner, course string }

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[recordKey]*Record{}}
}

func (m *MemoryStore) get(learnerID, courseID string) (*Record, bool) {
	r, ok := m.records[recordKey{learnerID, courseID}]
	return r, ok
}

func snapshot(r *Record) Record {
	out := *r
	out.CompletedLessonIDs = append([]string(nil), r.CompletedLessonIDs...)
	out.ExamResults = append([]ExamResult(nil), r.ExamResults...)
	out.QuizResults = make(map[string]QuizResult, len(r.QuizResults))
	for k, v := range r.QuizResults {
		out.QuizResults[k] = v
	}
	out.Assignments = make(map[string]AssignmentSubmission, len(r.Assignments))
	for k, v := range r.Assignments {
		out.Assignments[k] = v
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	if r.Certificate != nil {
		c := *r.Certificate
		out.Certificate = &c
	}
	return out
}

func (m *MemoryStore) Ensure(_ context.Context, learnerID, courseID string, initial enrollment.Status) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.get(learnerID, courseID); ok {
		return snapshot(r), false, nil
	}
	r := &Record{
		LearnerID:      learnerID,
		CourseID:       courseID,
		Status:         initial,
		QuizResults:    map[string]QuizResult{},
		Assignments:    map[string]AssignmentSubmission{},
		LastAccessedAt: time.Now().UTC(),
	}
	m.records[recordKey{learnerID, courseID}] = r
	return snapshot(r), true, nil
}

func (m *MemoryStore) Get(_ context.Context, learnerID, courseID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.get(learnerID, courseID)
	if !ok {
		return Record{}, Errorf(CodeNotFound, "no progress record for learner %s in course %s", learnerID, courseID)
	}
	return snapshot(r), nil
}

func (m *MemoryStore) SetStatus(_ context.Context, learnerID, courseID string, from, to enrollment.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.get(learnerID, courseID)
	if !ok || r.Status != from {
		return Errorf(CodePreconditionFailed, "enrollment is not %s", from)
	}
	r.Status = to
	return nil
}

func (m *MemoryStore) AddCompletedLesson(_ context.Context, learnerID, courseID, lessonID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.get(learnerID, courseID)
	if !ok {
		return false, Errorf(CodeNotFound, "no progress record")
	}
	if r.HasLesson(lessonID) {
		return false, nil
	}
	r.CompletedLessonIDs = append(r.CompletedLessonIDs, lessonID)
	return true, nil
}

func (m *MemoryStore) UpsertQuizResult(_ context.Context, learnerID, courseID string, qr QuizResult) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.get(learnerID, courseID)
	if !ok {
		return 0, Errorf(CodeNotFound, "no progress record")
	}
	if prev, exists := r.QuizResults[qr.LessonID]; exists {
		qr.Attempt = prev.Attempt + 1
	} else {
		qr.Attempt = 1
	}
	r.QuizResults[qr.LessonID] = qr
	return qr.Attempt, nil
}

func (m *MemoryStore) UpsertAssignment(_ context.Context, learnerID, courseID string, sub AssignmentSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.get(learnerID, courseID)
	if !ok {
		return Errorf(CodeNotFound, "no progress record")
	}
	sub.Graded = false
	sub.Grade = nil
	sub.Feedback = ""
	sub.GradedAt = nil
	r.Assignments[sub.LessonID] = sub
	return nil
}

func (m *MemoryStore) AppendExamResult(_ context.Context, learnerID, courseID string, er ExamResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.get(learnerID, courseID)
	if !ok {
		return Errorf(CodeNotFound, "no progress record")
	}
	r.ExamResults = append(r.ExamResults, er)
	return nil
}

func (m *MemoryStore) MarkCompleted(_ context.Context, learnerID, courseID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.get(learnerID, courseID)
	if !ok {
		return false, Errorf(CodeNotFound, "no progress record")
	}
	if r.Completed {
		return false, nil
	}
	r.Completed = true
	t := at.UTC()
	r.CompletedAt = &t
	return true, nil
}

func (m *MemoryStore) Touch(_ context.Context, learnerID, courseID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.get(learnerID, courseID); ok {
		r.LastAccessedAt = at.UTC()
	}
	return nil
}

func (m *MemoryStore) StampCertificate(_ context.Context, learnerID, courseID string, stamp CertificateStamp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.get(learnerID, courseID)
	if !ok {
		return Errorf(CodeNotFound, "no progress record")
	}
	r.Certificate = &stamp
	return nil
}
