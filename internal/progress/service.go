package progress

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moiseiyaa/iremeHub-lms/internal/audit"
	"github.com/moiseiyaa/iremeHub-lms/internal/catalog"
	"github.com/moiseiyaa/iremeHub-lms/internal/enrollment"
	"github.com/moiseiyaa/iremeHub-lms/internal/exam"
	"github.com/moiseiyaa/iremeHub-lms/internal/grading"
)

// QuizPassingPercent is the caller-facing pass threshold for quizzes. It is
// reporting only; any quiz submission marks the lesson visited regardless of
// score.
const QuizPassingPercent = 70

// Service is the progress and assessment tracking engine. Every operation
// re-fetches a catalog snapshot, gates on the enrollment status machine,
// commits through the store's atomic mutators, and re-evaluates the
// completion criteria after any completion-affecting write.
type Service struct {
	store    Store
	catalog  catalog.Reader
	attempts exam.AttemptStore
	audit    audit.Recorder
	now      func() time.Time
}

func NewService(store Store, cat catalog.Reader, attempts exam.AttemptStore, rec audit.Recorder, now func() time.Time) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, catalog: cat, attempts: attempts, audit: rec, now: now}
}

// QuizOutcome is what a learner sees after a quiz submission.
type QuizOutcome struct {
	Result     QuizResult `json:"result"`
	Percentage float64    `json:"percentage_score"`
	IsPassing  bool       `json:"is_passing"`
}

// ExamQuestion is a bank entry with the answer key stripped.
type ExamQuestion struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Points  float64  `json:"points"`
}

// ExamTicket is a freshly issued attempt: the redacted bank plus the
// server-anchored timing the submission will be judged against.
type ExamTicket struct {
	AttemptID        string         `json:"attempt_id"`
	LessonID         string         `json:"lesson_id"`
	Questions        []ExamQuestion `json:"questions"`
	TimeLimitMinutes int            `json:"time_limit_minutes"`
	PassingScore     float64        `json:"passing_score"`
	StartedAt        time.Time      `json:"started_at"`
	Deadline         time.Time      `json:"deadline"`
}

// StartExamResult either short-circuits with the prior passing result or
// carries a new ticket.
type StartExamResult struct {
	AlreadyPassed bool        `json:"already_passed"`
	Result        *ExamResult `json:"result,omitempty"`
	Ticket        *ExamTicket `json:"ticket,omitempty"`
}

type ExamOutcome struct {
	Result               ExamResult `json:"result"`
	RequiredPassingScore float64    `json:"required_passing_score"`
}

func (s *Service) snapshot(ctx context.Context, courseID string) (catalog.Snapshot, error) {
	snap, err := s.catalog.Snapshot(ctx, courseID)
	if err != nil {
		if errors.Is(err, catalog.ErrCourseNotFound) {
			return catalog.Snapshot{}, Errorf(CodeNotFound, "course %s not found", courseID)
		}
		return catalog.Snapshot{}, err
	}
	return snap, nil
}

// gate lazily creates the progress record on first interaction and rejects
// writes unless the enrollment status permits them.
func (s *Service) gate(ctx context.Context, learnerID string, snap catalog.Snapshot) (Record, error) {
	rec, created, err := s.store.Ensure(ctx, learnerID, snap.Course.ID, enrollment.Initial(snap.Course.Price))
	if err != nil {
		return Record{}, err
	}
	if created {
		s.record(ctx, audit.EventEnrolled, learnerID, snap.Course.ID, map[string]any{"status": rec.Status})
	}
	if !rec.Status.CanWrite() {
		return Record{}, Errorf(CodeUnauthorized, "enrollment status %q does not permit course activity", rec.Status)
	}
	return rec, nil
}

func (s *Service) record(ctx context.Context, typ, learnerID, courseID string, data map[string]any) {
	buf, _ := json.Marshal(data)
	// best-effort; the audit trail never fails a learner operation
	_ = s.audit.Append(ctx, audit.Event{
		Type:      typ,
		LearnerID: learnerID,
		CourseID:  courseID,
		DataJSON:  string(buf),
	})
}

// Enroll creates (or returns) the learner's progress record for a course.
func (s *Service) Enroll(ctx context.Context, learnerID, courseID string) (View, error) {
	snap, err := s.snapshot(ctx, courseID)
	if err != nil {
		return View{}, err
	}
	rec, created, err := s.store.Ensure(ctx, learnerID, courseID, enrollment.Initial(snap.Course.Price))
	if err != nil {
		return View{}, err
	}
	if created {
		s.record(ctx, audit.EventEnrolled, learnerID, courseID, map[string]any{"status": rec.Status})
	}
	return s.view(rec, snap), nil
}

// SetEnrollmentStatus applies one machine transition (approve, reject,
// cancel). The completed state is reached only through completion
// evaluation, never through this method.
func (s *Service) SetEnrollmentStatus(ctx context.Context, learnerID, courseID string, from, to enrollment.Status) error {
	if !from.Valid() || !to.Valid() || to == enrollment.StatusCompleted {
		return Errorf(CodeInvalidInput, "invalid enrollment transition %s -> %s", from, to)
	}
	if !from.CanTransitionTo(to) {
		return Errorf(CodeInvalidInput, "invalid enrollment transition %s -> %s", from, to)
	}
	if err := s.store.SetStatus(ctx, learnerID, courseID, from, to); err != nil {
		return err
	}
	s.record(ctx, audit.EventEnrollmentChanged, learnerID, courseID, map[string]any{"from": from, "to": to})
	return nil
}

// RecordLessonCompletion marks one lesson finished. Repeating the call is a
// no-op on the completed set.
func (s *Service) RecordLessonCompletion(ctx context.Context, learnerID, courseID, lessonID string) (View, error) {
	snap, err := s.snapshot(ctx, courseID)
	if err != nil {
		return View{}, err
	}
	if _, ok := snap.Lesson(lessonID); !ok {
		return View{}, Errorf(CodeNotFound, "lesson %s not found in course %s", lessonID, courseID)
	}
	if _, err := s.gate(ctx, learnerID, snap); err != nil {
		return View{}, err
	}
	added, err := s.store.AddCompletedLesson(ctx, learnerID, courseID, lessonID)
	if err != nil {
		return View{}, err
	}
	_ = s.store.Touch(ctx, learnerID, courseID, s.now())
	if added {
		s.record(ctx, audit.EventLessonCompleted, learnerID, courseID, map[string]any{"lesson_id": lessonID})
	}
	if err := s.evaluateCompletion(ctx, learnerID, snap); err != nil {
		return View{}, err
	}
	rec, err := s.store.Get(ctx, learnerID, courseID)
	if err != nil {
		return View{}, err
	}
	return s.view(rec, snap), nil
}

// SubmitQuiz grades an answer sheet against the lesson's bank, stores the
// latest result, and counts the lesson as visited regardless of score.
func (s *Service) SubmitQuiz(ctx context.Context, learnerID, courseID, lessonID string, answers []int) (QuizOutcome, error) {
	snap, err := s.snapshot(ctx, courseID)
	if err != nil {
		return QuizOutcome{}, err
	}
	lesson, ok := snap.Lesson(lessonID)
	if !ok {
		return QuizOutcome{}, Errorf(CodeNotFound, "lesson %s not found in course %s", lessonID, courseID)
	}
	if lesson.ContentType != catalog.ContentTypeQuiz {
		return QuizOutcome{}, Errorf(CodeInvalidInput, "lesson %s is not a quiz", lessonID)
	}
	if _, err := s.gate(ctx, learnerID, snap); err != nil {
		return QuizOutcome{}, err
	}

	res := grading.GradeSheet(lesson.Questions, answers)
	qr := QuizResult{
		LessonID:    lessonID,
		Score:       res.Score,
		TotalPoints: res.TotalPoints,
		Answers:     res.Answers,
		CompletedAt: s.now().UTC(),
	}
	attempt, err := s.store.UpsertQuizResult(ctx, learnerID, courseID, qr)
	if err != nil {
		return QuizOutcome{}, err
	}
	qr.Attempt = attempt

	// a quiz attempt always counts as visited; passing is reporting only
	if _, err := s.store.AddCompletedLesson(ctx, learnerID, courseID, lessonID); err != nil {
		return QuizOutcome{}, err
	}
	_ = s.store.Touch(ctx, learnerID, courseID, s.now())
	s.record(ctx, audit.EventQuizSubmitted, learnerID, courseID, map[string]any{
		"lesson_id": lessonID, "score": res.Score, "attempt": attempt,
	})
	if err := s.evaluateCompletion(ctx, learnerID, snap); err != nil {
		return QuizOutcome{}, err
	}
	return QuizOutcome{
		Result:     qr,
		Percentage: res.Percentage(),
		IsPassing:  res.Percentage() >= QuizPassingPercent,
	}, nil
}

// SubmitAssignment stores a free-text submission for manual grading and
// marks the lesson complete (ungraded completion).
func (s *Service) SubmitAssignment(ctx context.Context, learnerID, courseID, lessonID, text string) (AssignmentSubmission, error) {
	snap, err := s.snapshot(ctx, courseID)
	if err != nil {
		return AssignmentSubmission{}, err
	}
	lesson, ok := snap.Lesson(lessonID)
	if !ok {
		return AssignmentSubmission{}, Errorf(CodeNotFound, "lesson %s not found in course %s", lessonID, courseID)
	}
	if lesson.ContentType != catalog.ContentTypeAssignment {
		return AssignmentSubmission{}, Errorf(CodeInvalidInput, "lesson %s is not an assignment", lessonID)
	}
	if strings.TrimSpace(text) == "" {
		return AssignmentSubmission{}, Errorf(CodeInvalidInput, "submission text required")
	}
	if _, err := s.gate(ctx, learnerID, snap); err != nil {
		return AssignmentSubmission{}, err
	}

	sub := AssignmentSubmission{LessonID: lessonID, Text: text, SubmittedAt: s.now().UTC()}
	if err := s.store.UpsertAssignment(ctx, learnerID, courseID, sub); err != nil {
		return AssignmentSubmission{}, err
	}
	if _, err := s.store.AddCompletedLesson(ctx, learnerID, courseID, lessonID); err != nil {
		return AssignmentSubmission{}, err
	}
	_ = s.store.Touch(ctx, learnerID, courseID, s.now())
	s.record(ctx, audit.EventAssignmentSubmitted, learnerID, courseID, map[string]any{"lesson_id": lessonID})
	if err := s.evaluateCompletion(ctx, learnerID, snap); err != nil {
		return AssignmentSubmission{}, err
	}
	return sub, nil
}

// StartExam issues a server-anchored attempt, or short-circuits with the
// prior result when the learner has already passed this exam.
func (s *Service) StartExam(ctx context.Context, learnerID, courseID, lessonID string) (StartExamResult, error) {
	snap, err := s.snapshot(ctx, courseID)
	if err != nil {
		return StartExamResult{}, err
	}
	lesson, ok := snap.Lesson(lessonID)
	if !ok {
		return StartExamResult{}, Errorf(CodeNotFound, "lesson %s not found in course %s", lessonID, courseID)
	}
	if lesson.ContentType != catalog.ContentTypeExam || lesson.Exam == nil {
		return StartExamResult{}, Errorf(CodeInvalidInput, "lesson %s is not an exam", lessonID)
	}
	rec, err := s.gate(ctx, learnerID, snap)
	if err != nil {
		return StartExamResult{}, err
	}

	for _, er := range rec.ExamResults {
		if er.LessonID == lessonID && er.Passed {
			out := er
			return StartExamResult{AlreadyPassed: true, Result: &out}, nil
		}
	}
	if max := lesson.Exam.MaxAttempts; max > 0 && rec.ExamAttemptCount(lessonID) >= max {
		return StartExamResult{}, Errorf(CodePreconditionFailed, "exam attempt limit (%d) reached for lesson %s", max, lessonID)
	}

	started := s.now().UTC()
	attempt := exam.Attempt{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		CourseID:  courseID,
		LessonID:  lessonID,
		StartedAt: started,
		Deadline:  started.Add(time.Duration(lesson.Exam.TimeLimitMinutes) * time.Minute),
		Status:    exam.StatusInProgress,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return StartExamResult{}, err
	}
	_ = s.store.Touch(ctx, learnerID, courseID, started)
	s.record(ctx, audit.EventExamStarted, learnerID, courseID, map[string]any{
		"lesson_id": lessonID, "attempt_id": attempt.ID,
	})

	qs := make([]ExamQuestion, 0, len(lesson.Questions))
	for _, q := range lesson.Questions {
		qs = append(qs, ExamQuestion{Prompt: q.Prompt, Options: q.Options, Points: q.Points})
	}
	return StartExamResult{Ticket: &ExamTicket{
		AttemptID:        attempt.ID,
		LessonID:         lessonID,
		Questions:        qs,
		TimeLimitMinutes: lesson.Exam.TimeLimitMinutes,
		PassingScore:     lesson.PassingScore(),
		StartedAt:        attempt.StartedAt,
		Deadline:         attempt.Deadline,
	}}, nil
}

// SubmitExam grades a submission against the stored attempt deadline. A
// late submission records nothing. Only a passing result marks the lesson
// complete; failing leaves it open for retries.
func (s *Service) SubmitExam(ctx context.Context, learnerID, courseID, lessonID, attemptID string, answers []int) (ExamOutcome, error) {
	snap, err := s.snapshot(ctx, courseID)
	if err != nil {
		return ExamOutcome{}, err
	}
	lesson, ok := snap.Lesson(lessonID)
	if !ok {
		return ExamOutcome{}, Errorf(CodeNotFound, "lesson %s not found in course %s", lessonID, courseID)
	}
	if lesson.ContentType != catalog.ContentTypeExam || lesson.Exam == nil {
		return ExamOutcome{}, Errorf(CodeInvalidInput, "lesson %s is not an exam", lessonID)
	}
	if _, err := s.gate(ctx, learnerID, snap); err != nil {
		return ExamOutcome{}, err
	}

	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		if errors.Is(err, exam.ErrAttemptNotFound) {
			return ExamOutcome{}, Errorf(CodeNotFound, "exam attempt %s not found", attemptID)
		}
		return ExamOutcome{}, err
	}
	if attempt.LearnerID != learnerID || attempt.LessonID != lessonID {
		return ExamOutcome{}, Errorf(CodeUnauthorized, "attempt %s does not belong to this submission", attemptID)
	}
	if attempt.Status != exam.StatusInProgress {
		return ExamOutcome{}, Errorf(CodePreconditionFailed, "attempt %s is %s", attemptID, attempt.Status)
	}

	now := s.now().UTC()
	if now.After(attempt.Deadline) {
		_ = s.attempts.MarkExpired(ctx, attemptID)
		return ExamOutcome{}, Errorf(CodeTimeLimitExceeded,
			"exam submitted after the %d minute limit", lesson.Exam.TimeLimitMinutes)
	}
	ok, err = s.attempts.MarkSubmitted(ctx, attemptID)
	if err != nil {
		return ExamOutcome{}, err
	}
	if !ok {
		return ExamOutcome{}, Errorf(CodePreconditionFailed, "attempt %s already submitted", attemptID)
	}

	res := grading.GradeSheet(lesson.Questions, answers)
	passing := lesson.PassingScore()
	er := ExamResult{
		LessonID:         lessonID,
		AttemptID:        attemptID,
		Score:            res.Score,
		TotalPoints:      res.TotalPoints,
		Percentage:       res.Percentage(),
		Passed:           res.Percentage() >= passing,
		Answers:          res.Answers,
		StartedAt:        attempt.StartedAt,
		CompletedAt:      now,
		TimeSpentMinutes: int(math.Round(now.Sub(attempt.StartedAt).Minutes())),
	}
	if err := s.store.AppendExamResult(ctx, learnerID, courseID, er); err != nil {
		return ExamOutcome{}, err
	}
	if er.Passed {
		if _, err := s.store.AddCompletedLesson(ctx, learnerID, courseID, lessonID); err != nil {
			return ExamOutcome{}, err
		}
	}
	_ = s.store.Touch(ctx, learnerID, courseID, now)
	s.record(ctx, audit.EventExamSubmitted, learnerID, courseID, map[string]any{
		"lesson_id": lessonID, "attempt_id": attemptID, "passed": er.Passed, "percentage": er.Percentage,
	})
	if er.Passed {
		if err := s.evaluateCompletion(ctx, learnerID, snap); err != nil {
			return ExamOutcome{}, err
		}
	}
	return ExamOutcome{Result: er, RequiredPassingScore: passing}, nil
}

// Progress returns the learner's record with derived values computed
// against the live catalog.
func (s *Service) Progress(ctx context.Context, learnerID, courseID string) (View, error) {
	snap, err := s.snapshot(ctx, courseID)
	if err != nil {
		return View{}, err
	}
	rec, err := s.store.Get(ctx, learnerID, courseID)
	if err != nil {
		return View{}, err
	}
	_ = s.store.Touch(ctx, learnerID, courseID, s.now())
	return s.view(rec, snap), nil
}

// evaluateCompletion applies the completion criteria after a write: when
// every catalog lesson is in the completed set, the record flips to
// completed exactly once and stays there.
func (s *Service) evaluateCompletion(ctx context.Context, learnerID string, snap catalog.Snapshot) error {
	rec, err := s.store.Get(ctx, learnerID, snap.Course.ID)
	if err != nil {
		return err
	}
	total := len(snap.Lessons)
	if total == 0 || rec.Completed || len(rec.CompletedLessonIDs) != total {
		return nil
	}
	flipped, err := s.store.MarkCompleted(ctx, learnerID, snap.Course.ID, s.now())
	if err != nil {
		return err
	}
	if !flipped {
		return nil
	}
	// the status machine follows the flag; a record already out of active
	// (concurrent cancel) keeps its status
	_ = s.store.SetStatus(ctx, learnerID, snap.Course.ID, enrollment.StatusActive, enrollment.StatusCompleted)
	s.record(ctx, audit.EventCourseCompleted, learnerID, snap.Course.ID, map[string]any{"total_lessons": total})
	return nil
}

func (s *Service) view(rec Record, snap catalog.Snapshot) View {
	v := View{
		Record:          rec,
		TotalLessons:    len(snap.Lessons),
		TotalQuizPoints: rec.TotalPoints(),
	}
	if v.TotalLessons > 0 {
		v.CompletionPercent = float64(len(rec.CompletedLessonIDs)) / float64(v.TotalLessons) * 100
	}
	return v
}
