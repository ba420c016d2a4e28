package certificate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/moiseiyaa/iremeHub-lms/internal/catalog"
	"github.com/moiseiyaa/iremeHub-lms/internal/exam"
	"github.com/moiseiyaa/iremeHub-lms/internal/identity"
	"github.com/moiseiyaa/iremeHub-lms/internal/progress"
)

type fixture struct {
	issuer *Issuer
	svc    *progress.Service
	certs  *MemoryStore
	cat    *catalog.MemoryStore
	users  *identity.MemoryDirectory
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		certs: NewMemoryStore(),
		cat:   catalog.NewMemoryStore(),
		users: identity.NewMemoryDirectory(),
		now:   time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	prog := progress.NewMemoryStore()
	clock := func() time.Time { return f.now }
	f.svc = progress.NewService(prog, f.cat, exam.NewMemoryStore(), nil, clock)
	f.issuer = NewIssuer(f.certs, prog, f.cat, f.users, nil, clock)
	return f
}

// seedCourse builds a two-lesson course: one video and one final exam with a
// two-question bank worth 3 points.
func (f *fixture) seedCourse(t *testing.T, id string, withExam bool) {
	t.Helper()
	ctx := context.Background()
	if err := f.cat.PutCourse(ctx, catalog.Course{ID: id, Title: "Course " + id}); err != nil {
		t.Fatalf("put course: %v", err)
	}
	lessons := []catalog.Lesson{
		{ID: "intro", CourseID: id, ContentType: catalog.ContentTypeVideo},
	}
	if withExam {
		lessons = append(lessons, catalog.Lesson{
			ID:          "final",
			CourseID:    id,
			ContentType: catalog.ContentTypeExam,
			Position:    1,
			Questions: []catalog.Question{
				{Prompt: "q1", Options: []string{"a", "b"}, CorrectAnswer: 1, Points: 2},
				{Prompt: "q2", Options: []string{"a", "b"}, CorrectAnswer: 0, Points: 1},
			},
			Exam: &catalog.ExamMeta{TimeLimitMinutes: 30, PassingScore: 60},
		})
	}
	for _, l := range lessons {
		if err := f.cat.PutLesson(ctx, l); err != nil {
			t.Fatalf("put lesson: %v", err)
		}
	}
}

func (f *fixture) passExam(t *testing.T, learnerID, courseID string, answers []int) {
	t.Helper()
	ctx := context.Background()
	start, err := f.svc.StartExam(ctx, learnerID, courseID, "final")
	if err != nil {
		t.Fatalf("start exam: %v", err)
	}
	if _, err := f.svc.SubmitExam(ctx, learnerID, courseID, "final", start.Ticket.AttemptID, answers); err != nil {
		t.Fatalf("submit exam: %v", err)
	}
}

func TestIssueGatedOnCompletion(t *testing.T) {
	f := newFixture(t)
	f.seedCourse(t, "c1", true)
	ctx := context.Background()

	// not enrolled
	_, err := f.issuer.Issue(ctx, "alice", "c1")
	if progress.CodeOf(err) != progress.CodeUnauthorized {
		t.Fatalf("unenrolled code = %s, want unauthorized", progress.CodeOf(err))
	}

	if _, err := f.svc.Enroll(ctx, "alice", "c1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	// enrolled but nothing done
	_, err = f.issuer.Issue(ctx, "alice", "c1")
	if progress.CodeOf(err) != progress.CodePreconditionFailed {
		t.Fatalf("incomplete code = %s, want precondition_failed", progress.CodeOf(err))
	}

	if _, err := f.svc.RecordLessonCompletion(ctx, "alice", "c1", "intro"); err != nil {
		t.Fatalf("complete intro: %v", err)
	}
	_, err = f.issuer.Issue(ctx, "alice", "c1")
	if progress.CodeOf(err) != progress.CodePreconditionFailed {
		t.Fatalf("missing exam code = %s, want precondition_failed", progress.CodeOf(err))
	}

	f.passExam(t, "alice", "c1", []int{1, 0})
	cert, err := f.issuer.Issue(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cert.Grade != "A" {
		t.Fatalf("grade = %s, want A for 100%%", cert.Grade)
	}
	if cert.HoursCompleted != 1.0 {
		t.Fatalf("hours = %v, want 1.0 for two lessons", cert.HoursCompleted)
	}
	if !cert.IssuedAt.Equal(f.now) {
		t.Fatalf("issued at = %v", cert.IssuedAt)
	}

	// second request conflicts
	_, err = f.issuer.Issue(ctx, "alice", "c1")
	if progress.CodeOf(err) != progress.CodeAlreadyIssued {
		t.Fatalf("repeat code = %s, want already_issued", progress.CodeOf(err))
	}
}

func TestIssueGradeBandFromLatestAttempt(t *testing.T) {
	f := newFixture(t)
	f.seedCourse(t, "c1", true)
	ctx := context.Background()

	if _, err := f.svc.RecordLessonCompletion(ctx, "alice", "c1", "intro"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	// 2/3 = 66.7%, passes the 60 bar and lands in the Pass band
	f.passExam(t, "alice", "c1", []int{1, 1})

	cert, err := f.issuer.Issue(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cert.Grade != "Pass" {
		t.Fatalf("grade = %s, want Pass for 66.7%%", cert.Grade)
	}
}

func TestIssueWithoutFinalExam(t *testing.T) {
	f := newFixture(t)
	f.seedCourse(t, "c1", false)
	ctx := context.Background()

	if _, err := f.svc.RecordLessonCompletion(ctx, "alice", "c1", "intro"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	cert, err := f.issuer.Issue(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cert.Grade != GradeNone {
		t.Fatalf("grade = %s, want %s", cert.Grade, GradeNone)
	}
}

func TestIssueExactlyOnceUnderContention(t *testing.T) {
	f := newFixture(t)
	f.seedCourse(t, "c1", false)
	ctx := context.Background()

	if _, err := f.svc.RecordLessonCompletion(ctx, "alice", "c1", "intro"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	issued := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.issuer.Issue(ctx, "alice", "c1"); err == nil {
				mu.Lock()
				issued++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if issued != 1 {
		t.Fatalf("issued %d certificates, want exactly 1", issued)
	}
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	f.seedCourse(t, "c1", false)
	f.users.Put("alice", "Alice Uwase")
	ctx := context.Background()

	if _, err := f.svc.RecordLessonCompletion(ctx, "alice", "c1", "intro"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	cert, err := f.issuer.Issue(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	v, err := f.issuer.Verify(ctx, cert.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !v.IsValid || v.CertificateID != cert.ID {
		t.Fatalf("verification = %+v", v)
	}
	if v.Recipient != "Alice Uwase" {
		t.Fatalf("recipient = %s", v.Recipient)
	}
	if v.Course != "Course c1" {
		t.Fatalf("course = %s", v.Course)
	}

	// unknown ids verify as invalid, not as errors
	v, err = f.issuer.Verify(ctx, "not-a-cert")
	if err != nil {
		t.Fatalf("verify unknown: %v", err)
	}
	if v.IsValid {
		t.Fatal("unknown id must verify invalid")
	}
}

func TestGradeBands(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{100, "A"}, {90, "A"}, {89.9, "B"}, {80, "B"}, {79, "C"}, {70, "C"}, {69.9, "Pass"}, {0, "Pass"},
	}
	for _, c := range cases {
		if got := GradeFor(c.pct); got != c.want {
			t.Errorf("GradeFor(%v) = %s, want %s", c.pct, got, c.want)
		}
	}
}
