package exam

import "time"

// Attempt is a server-anchored exam attempt token. The deadline is computed
// and stored when the attempt is issued; submissions are judged against it,
// never against a client-supplied start time.
type Attempt struct {
	ID        string    `json:"id"`
	LearnerID string    `json:"learner_id"`
	CourseID  string    `json:"course_id"`
	LessonID  string    `json:"lesson_id"`
	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
	Status    string    `json:"status"`
}

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
	StatusExpired    = "expired"
)
