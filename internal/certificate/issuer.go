package certificate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/moiseiyaa/iremeHub-lms/internal/audit"
	"github.com/moiseiyaa/iremeHub-lms/internal/catalog"
	"github.com/moiseiyaa/iremeHub-lms/internal/identity"
	"github.com/moiseiyaa/iremeHub-lms/internal/progress"
)

// Issuer mints certificates once all completion criteria hold: every
// catalog lesson completed, plus a passing final exam if the course has
// one. Issuance is effectively exactly-once per (learner, course).
type Issuer struct {
	certs    Store
	progress progress.Store
	catalog  catalog.Reader
	users    identity.Directory
	audit    audit.Recorder
	now      func() time.Time
}

func NewIssuer(certs Store, prog progress.Store, cat catalog.Reader, users identity.Directory, rec audit.Recorder, now func() time.Time) *Issuer {
	if rec == nil {
		rec = audit.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{certs: certs, progress: prog, catalog: cat, users: users, audit: rec, now: now}
}

func (i *Issuer) Issue(ctx context.Context, learnerID, courseID string) (Certificate, error) {
	snap, err := i.catalog.Snapshot(ctx, courseID)
	if err != nil {
		if errors.Is(err, catalog.ErrCourseNotFound) {
			return Certificate{}, progress.Errorf(progress.CodeNotFound, "course %s not found", courseID)
		}
		return Certificate{}, err
	}
	rec, err := i.progress.Get(ctx, learnerID, courseID)
	if err != nil {
		if progress.CodeOf(err) == progress.CodeNotFound {
			return Certificate{}, progress.Errorf(progress.CodeUnauthorized, "learner %s is not enrolled in course %s", learnerID, courseID)
		}
		return Certificate{}, err
	}
	if !rec.Status.CanWrite() {
		return Certificate{}, progress.Errorf(progress.CodeUnauthorized, "enrollment status %q does not permit certificate issuance", rec.Status)
	}
	if rec.Certificate != nil && rec.Certificate.Issued {
		return Certificate{}, progress.Errorf(progress.CodeAlreadyIssued, "certificate already issued for course %s", courseID)
	}

	total := len(snap.Lessons)
	if total == 0 || len(rec.CompletedLessonIDs) != total {
		return Certificate{}, progress.Errorf(progress.CodePreconditionFailed,
			"course not complete: %d of %d lessons", len(rec.CompletedLessonIDs), total)
	}

	grade := GradeNone
	if final, ok := snap.FinalExam(); ok {
		latest, found := rec.LatestExamResult(final.ID)
		if !found || !latest.Passed {
			return Certificate{}, progress.Errorf(progress.CodePreconditionFailed,
				"final exam %s has no passing result", final.ID)
		}
		grade = GradeFor(latest.Percentage)
	}

	now := i.now().UTC()
	completion := now
	if rec.CompletedAt != nil {
		completion = *rec.CompletedAt
	}
	cert := Certificate{
		ID:             uuid.NewString(),
		LearnerID:      learnerID,
		CourseID:       courseID,
		IssuedAt:       now,
		Grade:          grade,
		CompletionDate: completion,
		HoursCompleted: float64(total) * hoursPerLesson,
	}
	if err := i.certs.Insert(ctx, cert); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Certificate{}, progress.Errorf(progress.CodeAlreadyIssued, "certificate already issued for course %s", courseID)
		}
		return Certificate{}, err
	}
	if err := i.progress.StampCertificate(ctx, learnerID, courseID, progress.CertificateStamp{
		Issued:        true,
		IssuedAt:      cert.IssuedAt,
		CertificateID: cert.ID,
	}); err != nil {
		return Certificate{}, err
	}
	buf, _ := json.Marshal(map[string]any{"certificate_id": cert.ID, "grade": cert.Grade})
	_ = i.audit.Append(ctx, audit.Event{
		Type:      audit.EventCertificateIssued,
		LearnerID: learnerID,
		CourseID:  courseID,
		DataJSON:  string(buf),
	})
	return cert, nil
}

// Verify answers a public, unauthenticated validity check by id. Unknown
// ids are not an error; they verify as invalid.
func (i *Issuer) Verify(ctx context.Context, certificateID string) (Verification, error) {
	cert, err := i.certs.Get(ctx, certificateID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Verification{IsValid: false}, nil
		}
		return Verification{}, err
	}
	recipient := cert.LearnerID
	if name, err := i.users.DisplayName(ctx, cert.LearnerID); err == nil && name != "" {
		recipient = name
	}
	courseTitle := cert.CourseID
	if snap, err := i.catalog.Snapshot(ctx, cert.CourseID); err == nil && snap.Course.Title != "" {
		courseTitle = snap.Course.Title
	}
	issuedAt := cert.IssuedAt
	return Verification{
		IsValid:       true,
		CertificateID: cert.ID,
		Recipient:     recipient,
		Course:        courseTitle,
		Grade:         cert.Grade,
		IssuedAt:      &issuedAt,
	}, nil
}
