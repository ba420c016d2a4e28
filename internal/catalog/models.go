package catalog

type ContentType string

const (
	ContentTypeVideo      ContentType = "video"
	ContentTypeArticle    ContentType = "article"
	ContentTypeQuiz       ContentType = "quiz"
	ContentTypeAssignment ContentType = "assignment"
	ContentTypeExam       ContentType = "exam"
)

// Question is one multiple-choice entry of a quiz or exam bank. The correct
// answer is an index into Options; it must never be served to a learner
// before submission.
type Question struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Points        float64  `json:"points"`
}

// ExamMeta carries the timing and pass policy of an exam lesson.
type ExamMeta struct {
	TimeLimitMinutes int     `json:"time_limit_minutes"`
	PassingScore     float64 `json:"passing_score"` // percentage threshold
	MaxAttempts      int     `json:"max_attempts"`  // 0 = unlimited retries while failing
}

const DefaultPassingScore = 85

type Lesson struct {
	ID          string      `json:"id"`
	CourseID    string      `json:"course_id"`
	Title       string      `json:"title"`
	ContentType ContentType `json:"content_type"`
	Position    int         `json:"position"`
	Questions   []Question  `json:"questions,omitempty"`
	Exam        *ExamMeta   `json:"exam,omitempty"`
}

type Course struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	OwnerID string  `json:"owner_id"`
	Price   float64 `json:"price"`
}

// Snapshot is a consistent read-only view of one course: the course row plus
// its lessons in catalog order. The engine re-fetches a snapshot on every
// operation rather than caching it, so catalog edits take effect on the next
// write.
type Snapshot struct {
	Course  Course   `json:"course"`
	Lessons []Lesson `json:"lessons"`
}

func (s Snapshot) Lesson(id string) (Lesson, bool) {
	for _, l := range s.Lessons {
		if l.ID == id {
			return l, true
		}
	}
	return Lesson{}, false
}

// FinalExam returns the last exam-type lesson in catalog order, if any.
// It is the lesson whose passing result gates certificate issuance.
func (s Snapshot) FinalExam() (Lesson, bool) {
	for i := len(s.Lessons) - 1; i >= 0; i-- {
		if s.Lessons[i].ContentType == ContentTypeExam {
			return s.Lessons[i], true
		}
	}
	return Lesson{}, false
}

// PassingScore resolves the effective pass threshold for an exam lesson.
func (l Lesson) PassingScore() float64 {
	if l.Exam != nil && l.Exam.PassingScore > 0 {
		return l.Exam.PassingScore
	}
	return DefaultPassingScore
}
