package exam_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/moiseiyaa/iremeHub-lms/internal/db"
	"github.com/moiseiyaa/iremeHub-lms/internal/exam"

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

func TestSQLStoreAttemptLifecycle(t *testing.T) {
	store := exam.NewSQLStore(openTestDB(t))
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Second)
	a := exam.Attempt{
		ID:        "attempt-1",
		LearnerID: "alice",
		CourseID:  "c1",
		LessonID:  "final",
		StartedAt: started,
		Deadline:  started.Add(30 * time.Minute),
		Status:    exam.StatusInProgress,
	}
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "attempt-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LearnerID != "alice" || got.Status != exam.StatusInProgress {
		t.Fatalf("got %+v", got)
	}
	if !got.Deadline.Equal(a.Deadline) {
		t.Fatalf("deadline = %v, want %v", got.Deadline, a.Deadline)
	}

	ok, err := store.MarkSubmitted(ctx, "attempt-1")
	if err != nil || !ok {
		t.Fatalf("submit = %v, %v", ok, err)
	}
	// the compare-and-set admits exactly one submission
	ok, err = store.MarkSubmitted(ctx, "attempt-1")
	if err != nil || ok {
		t.Fatalf("double submit = %v, %v", ok, err)
	}

	if _, err := store.Get(ctx, "ghost"); !errors.Is(err, exam.ErrAttemptNotFound) {
		t.Fatalf("missing attempt err = %v", err)
	}
}

func TestSQLStoreExpireOnlyInProgress(t *testing.T) {
	store := exam.NewSQLStore(openTestDB(t))
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Second)
	a := exam.Attempt{
		ID: "attempt-1", LearnerID: "alice", CourseID: "c1", LessonID: "final",
		StartedAt: started, Deadline: started.Add(time.Minute), Status: exam.StatusInProgress,
	}
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ok, err := store.MarkSubmitted(ctx, "attempt-1"); err != nil || !ok {
		t.Fatalf("submit = %v, %v", ok, err)
	}
	// expiring a submitted attempt is a no-op
	if err := store.MarkExpired(ctx, "attempt-1"); err != nil {
		t.Fatalf("expire: %v", err)
	}
	got, err := store.Get(ctx, "attempt-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != exam.StatusSubmitted {
		t.Fatalf("status = %s, want submitted", got.Status)
	}
}
