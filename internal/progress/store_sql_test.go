package progress_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/moiseiyaa/iremeHub-lms/internal/db"
	"github.com/moiseiyaa/iremeHub-lms/internal/enrollment"
	"github.com/moiseiyaa/iremeHub-lms/internal/grading"
	"github.com/moiseiyaa/iremeHub-lms/internal/progress"

	_ "modernc.org/sqlite" // driver for "sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	h, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	if err := db.EnsureSchema(context.Background(), h, db.DriverSQLite); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return h
}

func TestSQLStoreEnsureAndGet(t *testing.T) {
	store := progress.NewSQLStore(openTestDB(t))
	ctx := context.Background()

	rec, created, err := store.Ensure(ctx, "alice", "c1", enrollment.StatusActive)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !created || rec.Status != enrollment.StatusActive {
		t.Fatalf("created=%v status=%s", created, rec.Status)
	}

	// second call finds the row
	rec, created, err = store.Ensure(ctx, "alice", "c1", enrollment.StatusPending)
	if err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	if created || rec.Status != enrollment.StatusActive {
		t.Fatalf("re-ensure created=%v status=%s, want existing active row", created, rec.Status)
	}

	if _, err := store.Get(ctx, "nobody", "c1"); progress.CodeOf(err) != progress.CodeNotFound {
		t.Fatalf("missing row code = %s, want not_found", progress.CodeOf(err))
	}
}

func TestSQLStoreStatusCAS(t *testing.T) {
	store := progress.NewSQLStore(openTestDB(t))
	ctx := context.Background()
	if _, _, err := store.Ensure(ctx, "alice", "c1", enrollment.StatusPending); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if err := store.SetStatus(ctx, "alice", "c1", enrollment.StatusPending, enrollment.StatusActive); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// stale expectation loses the compare-and-set
	err := store.SetStatus(ctx, "alice", "c1", enrollment.StatusPending, enrollment.StatusRejected)
	if progress.CodeOf(err) != progress.CodePreconditionFailed {
		t.Fatalf("stale code = %s, want precondition_failed", progress.CodeOf(err))
	}
	rec, err := store.Get(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != enrollment.StatusActive {
		t.Fatalf("status = %s, want active", rec.Status)
	}
}

func TestSQLStoreCompletedLessonSet(t *testing.T) {
	store := progress.NewSQLStore(openTestDB(t))
	ctx := context.Background()
	if _, _, err := store.Ensure(ctx, "alice", "c1", enrollment.StatusActive); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	added, err := store.AddCompletedLesson(ctx, "alice", "c1", "l1")
	if err != nil || !added {
		t.Fatalf("first add = %v, %v", added, err)
	}
	added, err = store.AddCompletedLesson(ctx, "alice", "c1", "l1")
	if err != nil || added {
		t.Fatalf("duplicate add = %v, %v; want no-op", added, err)
	}
	if _, err := store.AddCompletedLesson(ctx, "alice", "c1", "l2"); err != nil {
		t.Fatalf("second lesson: %v", err)
	}

	rec, err := store.Get(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(rec.CompletedLessonIDs) != 2 {
		t.Fatalf("lessons = %v", rec.CompletedLessonIDs)
	}
}

func TestSQLStoreQuizUpsertCountsAttempts(t *testing.T) {
	store := progress.NewSQLStore(openTestDB(t))
	ctx := context.Background()
	if _, _, err := store.Ensure(ctx, "alice", "c1", enrollment.StatusActive); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	qr := progress.QuizResult{
		LessonID:    "quiz",
		Score:       2,
		TotalPoints: 3,
		Answers:     []grading.GradedAnswer{{Selected: 1, Correct: true, Points: 2}},
		CompletedAt: time.Now().UTC(),
	}
	attempt, err := store.UpsertQuizResult(ctx, "alice", "c1", qr)
	if err != nil || attempt != 1 {
		t.Fatalf("first upsert attempt = %d, %v", attempt, err)
	}

	qr.Score = 3
	attempt, err = store.UpsertQuizResult(ctx, "alice", "c1", qr)
	if err != nil || attempt != 2 {
		t.Fatalf("second upsert attempt = %d, %v", attempt, err)
	}

	rec, err := store.Get(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got, ok := rec.QuizResults["quiz"]
	if !ok || got.Score != 3 || got.Attempt != 2 {
		t.Fatalf("stored quiz = %+v", got)
	}
	if len(got.Answers) != 1 || !got.Answers[0].Correct {
		t.Fatalf("answers did not round-trip: %+v", got.Answers)
	}
}

func TestSQLStoreAssignmentResubmitResetsGrading(t *testing.T) {
	h := openTestDB(t)
	store := progress.NewSQLStore(h)
	ctx := context.Background()
	if _, _, err := store.Ensure(ctx, "alice", "c1", enrollment.StatusActive); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	sub := progress.AssignmentSubmission{LessonID: "essay", Text: "v1", SubmittedAt: time.Now().UTC()}
	if err := store.UpsertAssignment(ctx, "alice", "c1", sub); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// instructor grades it out of band
	if _, err := h.ExecContext(ctx,
		`UPDATE assignment_submissions SET graded=TRUE, grade=95, feedback='good'
		  WHERE learner_id='alice' AND course_id='c1' AND lesson_id='essay'`); err != nil {
		t.Fatalf("grade: %v", err)
	}

	sub.Text = "v2"
	if err := store.UpsertAssignment(ctx, "alice", "c1", sub); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	rec, err := store.Get(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got := rec.Assignments["essay"]
	if got.Text != "v2" || got.Graded || got.Grade != nil || got.Feedback != "" {
		t.Fatalf("resubmit kept stale grading: %+v", got)
	}
}

func TestSQLStoreExamResultsAppend(t *testing.T) {
	store := progress.NewSQLStore(openTestDB(t))
	ctx := context.Background()
	if _, _, err := store.Ensure(ctx, "alice", "c1", enrollment.StatusActive); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	for i, passed := range []bool{false, true} {
		er := progress.ExamResult{
			LessonID:         "final",
			AttemptID:        "a" + string(rune('1'+i)),
			Score:            float64(i + 2),
			TotalPoints:      3,
			Percentage:       float64(i+2) / 3 * 100,
			Passed:           passed,
			Answers:          []grading.GradedAnswer{},
			StartedAt:        now,
			CompletedAt:      now.Add(10 * time.Minute),
			TimeSpentMinutes: 10,
		}
		if err := store.AppendExamResult(ctx, "alice", "c1", er); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	rec, err := store.Get(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(rec.ExamResults) != 2 {
		t.Fatalf("exam results = %d, want 2", len(rec.ExamResults))
	}
	latest, ok := rec.LatestExamResult("final")
	if !ok || !latest.Passed || latest.AttemptID != "a2" {
		t.Fatalf("latest = %+v", latest)
	}
	if !latest.StartedAt.Equal(now) {
		t.Fatalf("started at = %v, want %v", latest.StartedAt, now)
	}
}

func TestSQLStoreCompletionOneWay(t *testing.T) {
	store := progress.NewSQLStore(openTestDB(t))
	ctx := context.Background()
	if _, _, err := store.Ensure(ctx, "alice", "c1", enrollment.StatusActive); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Second)
	flipped, err := store.MarkCompleted(ctx, "alice", "c1", at)
	if err != nil || !flipped {
		t.Fatalf("first flip = %v, %v", flipped, err)
	}
	flipped, err = store.MarkCompleted(ctx, "alice", "c1", at.Add(time.Hour))
	if err != nil || flipped {
		t.Fatalf("second flip = %v, %v; completion must be one-way", flipped, err)
	}

	rec, err := store.Get(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rec.Completed || rec.CompletedAt == nil || !rec.CompletedAt.Equal(at) {
		t.Fatalf("record = completed %v at %v", rec.Completed, rec.CompletedAt)
	}
}

func TestSQLStoreCertificateStamp(t *testing.T) {
	store := progress.NewSQLStore(openTestDB(t))
	ctx := context.Background()
	if _, _, err := store.Ensure(ctx, "alice", "c1", enrollment.StatusActive); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Second)
	stamp := progress.CertificateStamp{Issued: true, IssuedAt: at, CertificateID: "cert-1"}
	if err := store.StampCertificate(ctx, "alice", "c1", stamp); err != nil {
		t.Fatalf("stamp: %v", err)
	}
	rec, err := store.Get(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Certificate == nil || !rec.Certificate.Issued || rec.Certificate.CertificateID != "cert-1" {
		t.Fatalf("stamp = %+v", rec.Certificate)
	}
}
