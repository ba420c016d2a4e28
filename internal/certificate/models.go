package certificate

import "time"

// Certificate is an immutable proof-of-completion artifact. Once inserted
// it is never updated or deleted; the store exposes no mutators.
type Certificate struct {
	ID             string    `json:"certificate_id"`
	LearnerID      string    `json:"learner_id"`
	CourseID       string    `json:"course_id"`
	IssuedAt       time.Time `json:"issued_at"`
	Grade          string    `json:"grade"`
	CompletionDate time.Time `json:"completion_date"`
	HoursCompleted float64   `json:"hours_completed"`
}

// Verification is the public answer to "is this certificate real".
// Certificates are bearer-verifiable: anyone holding the id may ask.
type Verification struct {
	IsValid       bool       `json:"is_valid"`
	CertificateID string     `json:"certificate_id,omitempty"`
	Recipient     string     `json:"recipient,omitempty"`
	Course        string     `json:"course,omitempty"`
	Grade         string     `json:"grade,omitempty"`
	IssuedAt      *time.Time `json:"issued_at,omitempty"`
}

// hoursPerLesson is the fixed per-lesson time estimate behind
// hoursCompleted.
const hoursPerLesson = 0.5

// GradeFor maps a final-exam percentage to a certificate grade band.
func GradeFor(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	default:
		return "Pass"
	}
}

// GradeNone is recorded when the course has no final exam.
const GradeNone = "N/A"
