package progress

import (
	"time"

	"github.com/moiseiyaa/iremeHub-lms/internal/enrollment"
	"github.com/moiseiyaa/iremeHub-lms/internal/grading"
)

// QuizResult is the latest graded quiz submission for one lesson. Only the
// newest answer set is kept in full; Attempt counts how many times the
// learner has submitted.
type QuizResult struct {
	LessonID    string                 `json:"lesson_id"`
	Score       float64                `json:"score"`
	TotalPoints float64                `json:"total_points"`
	Answers     []grading.GradedAnswer `json:"answers"`
	Attempt     int                    `json:"attempt"`
	CompletedAt time.Time              `json:"completed_at"`
}

// ExamResult is one graded exam attempt. Entries are append-only; multiple
// entries per lesson accumulate across retries, and the newest one is the
// reported result.
type ExamResult struct {
	LessonID         string                 `json:"lesson_id"`
	AttemptID        string                 `json:"attempt_id"`
	Score            float64                `json:"score"`
	TotalPoints      float64                `json:"total_points"`
	Percentage       float64                `json:"percentage_score"`
	Passed           bool                   `json:"passed"`
	Answers          []grading.GradedAnswer `json:"answers"`
	StartedAt        time.Time              `json:"started_at"`
	CompletedAt      time.Time              `json:"completed_at"`
	TimeSpentMinutes int                    `json:"time_spent_minutes"`
}

// AssignmentSubmission is the latest free-text submission for one lesson,
// held for manual grading.
type AssignmentSubmission struct {
	LessonID    string     `json:"lesson_id"`
	Text        string     `json:"submission_text"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Graded      bool       `json:"graded"`
	Grade       *float64   `json:"grade,omitempty"`
	Feedback    string     `json:"feedback,omitempty"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`
}

// CertificateStamp marks a record whose certificate has been minted.
type CertificateStamp struct {
	Issued        bool      `json:"issued"`
	IssuedAt      time.Time `json:"issued_at"`
	CertificateID string    `json:"certificate_id"`
}

// Record is the durable per-(learner, course) progress state. The
// (LearnerID, CourseID) pair is unique; collections are the source of truth
// and aggregates over them are derived on read, never stored.
type Record struct {
	LearnerID          string                          `json:"learner_id"`
	CourseID           string                          `json:"course_id"`
	Status             enrollment.Status               `json:"status"`
	CompletedLessonIDs []string                        `json:"completed_lesson_ids"`
	QuizResults        map[string]QuizResult           `json:"quiz_results"`
	Assignments        map[string]AssignmentSubmission `json:"assignment_submissions"`
	ExamResults        []ExamResult                    `json:"exam_results"`
	Completed          bool                            `json:"completed"`
	CompletedAt        *time.Time                      `json:"completed_at,omitempty"`
	LastAccessedAt     time.Time                       `json:"last_accessed_at"`
	Certificate        *CertificateStamp               `json:"certificate,omitempty"`
}

func (r *Record) HasLesson(lessonID string) bool {
	for _, id := range r.CompletedLessonIDs {
		if id == lessonID {
			return true
		}
	}
	return false
}

// TotalPoints is the derived sum of quiz scores across all stored results.
func (r *Record) TotalPoints() float64 {
	var sum float64
	for _, qr := range r.QuizResults {
		sum += qr.Score
	}
	return sum
}

// LatestExamResult returns the newest exam entry for a lesson.
func (r *Record) LatestExamResult(lessonID string) (ExamResult, bool) {
	for i := len(r.ExamResults) - 1; i >= 0; i-- {
		if r.ExamResults[i].LessonID == lessonID {
			return r.ExamResults[i], true
		}
	}
	return ExamResult{}, false
}

// ExamAttemptCount counts graded attempts for a lesson.
func (r *Record) ExamAttemptCount(lessonID string) int {
	n := 0
	for _, er := range r.ExamResults {
		if er.LessonID == lessonID {
			n++
		}
	}
	return n
}

// View is the caller-facing projection of a record with its derived values
// computed against the live catalog.
type View struct {
	Record
	TotalLessons      int     `json:"total_lessons"`
	CompletionPercent float64 `json:"completion_percent"`
	TotalQuizPoints   float64 `json:"total_points"`
}
