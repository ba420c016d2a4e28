package audit

import (
	"context"
	"database/sql"
	"time"
)

// Event is one append-only audit entry. The engine records every mutation
// it commits, so a learner's mastery history can be reconstructed.
type Event struct {
	Offset    int64
	Type      string
	LearnerID string
	CourseID  string
	DataJSON  string
	CreatedAt int64
}

const (
	EventEnrolled            = "Enrolled"
	EventEnrollmentChanged   = "EnrollmentChanged"
	EventLessonCompleted     = "LessonCompleted"
	EventQuizSubmitted       = "QuizSubmitted"
	EventAssignmentSubmitted = "AssignmentSubmitted"
	EventExamStarted         = "ExamStarted"
	EventExamSubmitted       = "ExamSubmitted"
	EventCourseCompleted     = "CourseCompleted"
	EventCertificateIssued   = "CertificateIssued"
)

type Recorder interface {
	Append(ctx context.Context, e Event) error
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, learner_id, course_id, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.Type, e.LearnerID, e.CourseID, e.DataJSON, time.Now().Unix())
	return err
}

// Nop discards events; used when no audit sink is configured and in tests.
type Nop struct{}

func (Nop) Append(context.Context, Event) error { return nil }
