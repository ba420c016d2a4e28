package progress

import (
	"context"
	"time"

	"github.com/moiseiyaa/iremeHub-lms/internal/enrollment"
)

// Store is the durable progress record storage. Every mutator is a single
// atomic storage operation (set-union insert, conditional update, append),
// never an application-level read-modify-write, so concurrent writers for
// the same (learner, course) pair cannot lose updates.
type Store interface {
	// Ensure creates the record with the given initial status if it does not
	// exist and returns the current record either way, reporting whether
	// this call created it.
	Ensure(ctx context.Context, learnerID, courseID string, initial enrollment.Status) (Record, bool, error)

	// Get returns the record or a not_found engine error.
	Get(ctx context.Context, learnerID, courseID string) (Record, error)

	// SetStatus moves the machine from exactly `from` to `to`. A record in
	// any other state leaves the row untouched and returns
	// precondition_failed.
	SetStatus(ctx context.Context, learnerID, courseID string, from, to enrollment.Status) error

	// AddCompletedLesson unions the lesson into the completed set.
	// Reports whether the lesson was newly added.
	AddCompletedLesson(ctx context.Context, learnerID, courseID, lessonID string) (bool, error)

	// UpsertQuizResult stores the latest graded quiz for the lesson,
	// atomically bumping the attempt counter on re-submission. Returns the
	// resulting attempt number.
	UpsertQuizResult(ctx context.Context, learnerID, courseID string, qr QuizResult) (int, error)

	// UpsertAssignment stores the latest submission (latest wins, ungraded).
	UpsertAssignment(ctx context.Context, learnerID, courseID string, sub AssignmentSubmission) error

	// AppendExamResult appends one graded attempt; entries are never
	// updated or removed.
	AppendExamResult(ctx context.Context, learnerID, courseID string, er ExamResult) error

	// MarkCompleted flips completed to true exactly once. Reports whether
	// this call performed the flip.
	MarkCompleted(ctx context.Context, learnerID, courseID string, at time.Time) (bool, error)

	// Touch bumps last_accessed_at.
	Touch(ctx context.Context, learnerID, courseID string, at time.Time) error

	// StampCertificate records issuance on the progress row.
	StampCertificate(ctx context.Context, learnerID, courseID string, stamp CertificateStamp) error
}
