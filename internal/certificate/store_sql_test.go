package certificate_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/moiseiyaa/iremeHub-lms/internal/certificate"
	"github.com/moiseiyaa/iremeHub-lms/internal/db"

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

func TestSQLStoreInsertIsUniquePerEnrollment(t *testing.T) {
	store := certificate.NewSQLStore(openTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	c := certificate.Certificate{
		ID: "cert-1", LearnerID: "alice", CourseID: "c1",
		IssuedAt: now, Grade: "A", CompletionDate: now, HoursCompleted: 2.5,
	}
	if err := store.Insert(ctx, c); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// a second certificate for the same enrollment loses, even with a new id
	c.ID = "cert-2"
	if err := store.Insert(ctx, c); !errors.Is(err, certificate.ErrDuplicate) {
		t.Fatalf("duplicate err = %v, want ErrDuplicate", err)
	}

	// another learner in the same course is fine
	c.ID = "cert-3"
	c.LearnerID = "bob"
	if err := store.Insert(ctx, c); err != nil {
		t.Fatalf("other learner: %v", err)
	}

	got, err := store.Get(ctx, "cert-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Grade != "A" || got.HoursCompleted != 2.5 || !got.IssuedAt.Equal(now) {
		t.Fatalf("got %+v", got)
	}

	if _, err := store.Get(ctx, "ghost"); !errors.Is(err, certificate.ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}
