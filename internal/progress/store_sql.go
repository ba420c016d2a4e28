package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moiseiyaa/iremeHub-lms/internal/enrollment"
)

// SQLStore keeps each collection of the progress record in its own table so
// every mutation is a single atomic statement: set-union via
// ON CONFLICT DO NOTHING, latest-wins upserts, append-only inserts, and
// conditional updates for the one-way flags.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// maxWriteRetries bounds internal retries of transient storage conflicts
// before surfacing unavailable to the caller.
const maxWriteRetries = 3

func transient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || // sqlite busy
		strings.Contains(msg, "sqlstate 40001") // pg serialization failure
}

func withRetry(ctx context.Context, op func() error) error {
	var err error
	for i := 0; i < maxWriteRetries; i++ {
		if err = op(); err == nil || !transient(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 10 * time.Millisecond):
		}
	}
	return Errorf(CodeUnavailable, "storage busy: %v", err)
}

func (s *SQLStore) Ensure(ctx context.Context, learnerID, courseID string, initial enrollment.Status) (Record, bool, error) {
	var created bool
	err := withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO progress_records (learner_id, course_id, status, last_accessed_at)
			 VALUES ($1,$2,$3,$4)
			 ON CONFLICT (learner_id, course_id) DO NOTHING`,
			learnerID, courseID, string(initial), time.Now().Unix())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		created = n > 0
		return err
	})
	if err != nil {
		return Record{}, false, err
	}
	rec, err := s.Get(ctx, learnerID, courseID)
	return rec, created, err
}

func (s *SQLStore) Get(ctx context.Context, learnerID, courseID string) (Record, error) {
	rec := Record{
		LearnerID:   learnerID,
		CourseID:    courseID,
		QuizResults: map[string]QuizResult{},
		Assignments: map[string]AssignmentSubmission{},
	}
	var (
		status      string
		completedAt sql.NullInt64
		lastAccess  int64
		certIssued  bool
		certAt      sql.NullInt64
		certID      sql.NullString
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT status, completed, completed_at, last_accessed_at,
		        cert_issued, cert_issued_at, cert_id
		   FROM progress_records WHERE learner_id=$1 AND course_id=$2`,
		learnerID, courseID)
	if err := row.Scan(&status, &rec.Completed, &completedAt, &lastAccess,
		&certIssued, &certAt, &certID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, Errorf(CodeNotFound, "no progress record for learner %s in course %s", learnerID, courseID)
		}
		return Record{}, fmt.Errorf("load progress record: %w", err)
	}
	rec.Status = enrollment.Status(status)
	rec.LastAccessedAt = time.Unix(lastAccess, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		rec.CompletedAt = &t
	}
	if certIssued {
		rec.Certificate = &CertificateStamp{
			Issued:        true,
			IssuedAt:      time.Unix(certAt.Int64, 0).UTC(),
			CertificateID: certID.String,
		}
	}

	if err := s.loadLessons(ctx, &rec); err != nil {
		return Record{}, err
	}
	if err := s.loadQuizzes(ctx, &rec); err != nil {
		return Record{}, err
	}
	if err := s.loadAssignments(ctx, &rec); err != nil {
		return Record{}, err
	}
	if err := s.loadExamResults(ctx, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *SQLStore) loadLessons(ctx context.Context, rec *Record) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lesson_id FROM completed_lessons
		  WHERE learner_id=$1 AND course_id=$2 ORDER BY completed_at ASC`,
		rec.LearnerID, rec.CourseID)
	if err != nil {
		return fmt.Errorf("load completed lessons: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		rec.CompletedLessonIDs = append(rec.CompletedLessonIDs, id)
	}
	return rows.Err()
}

func (s *SQLStore) loadQuizzes(ctx context.Context, rec *Record) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lesson_id, score, total_points, answers_json, attempt, completed_at
		   FROM quiz_results WHERE learner_id=$1 AND course_id=$2`,
		rec.LearnerID, rec.CourseID)
	if err != nil {
		return fmt.Errorf("load quiz results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			qr    QuizResult
			ajson string
			done  int64
		)
		if err := rows.Scan(&qr.LessonID, &qr.Score, &qr.TotalPoints, &ajson, &qr.Attempt, &done); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(ajson), &qr.Answers); err != nil {
			return fmt.Errorf("quiz answers for %s: %w", qr.LessonID, err)
		}
		qr.CompletedAt = time.Unix(done, 0).UTC()
		rec.QuizResults[qr.LessonID] = qr
	}
	return rows.Err()
}

func (s *SQLStore) loadAssignments(ctx context.Context, rec *Record) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lesson_id, submission_text, submitted_at, graded, grade, feedback, graded_at
		   FROM assignment_submissions WHERE learner_id=$1 AND course_id=$2`,
		rec.LearnerID, rec.CourseID)
	if err != nil {
		return fmt.Errorf("load assignment submissions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sub      AssignmentSubmission
			at       int64
			grade    sql.NullFloat64
			feedback sql.NullString
			gradedAt sql.NullInt64
		)
		if err := rows.Scan(&sub.LessonID, &sub.Text, &at, &sub.Graded, &grade, &feedback, &gradedAt); err != nil {
			return err
		}
		sub.SubmittedAt = time.Unix(at, 0).UTC()
		if grade.Valid {
			sub.Grade = &grade.Float64
		}
		sub.Feedback = feedback.String
		if gradedAt.Valid {
			t := time.Unix(gradedAt.Int64, 0).UTC()
			sub.GradedAt = &t
		}
		rec.Assignments[sub.LessonID] = sub
	}
	return rows.Err()
}

func (s *SQLStore) loadExamResults(ctx context.Context, rec *Record) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lesson_id, attempt_id, score, total_points, percentage, passed,
		        answers_json, started_at, completed_at, time_spent_minutes
		   FROM exam_results WHERE learner_id=$1 AND course_id=$2 ORDER BY id ASC`,
		rec.LearnerID, rec.CourseID)
	if err != nil {
		return fmt.Errorf("load exam results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			er             ExamResult
			ajson          string
			started, ended int64
		)
		if err := rows.Scan(&er.LessonID, &er.AttemptID, &er.Score, &er.TotalPoints,
			&er.Percentage, &er.Passed, &ajson, &started, &ended, &er.TimeSpentMinutes); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(ajson), &er.Answers); err != nil {
			return fmt.Errorf("exam answers for %s: %w", er.LessonID, err)
		}
		er.StartedAt = time.Unix(started, 0).UTC()
		er.CompletedAt = time.Unix(ended, 0).UTC()
		rec.ExamResults = append(rec.ExamResults, er)
	}
	return rows.Err()
}

func (s *SQLStore) SetStatus(ctx context.Context, learnerID, courseID string, from, to enrollment.Status) error {
	return withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE progress_records SET status=$1
			  WHERE learner_id=$2 AND course_id=$3 AND status=$4`,
			string(to), learnerID, courseID, string(from))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return Errorf(CodePreconditionFailed, "enrollment is not %s", from)
		}
		return nil
	})
}

func (s *SQLStore) AddCompletedLesson(ctx context.Context, learnerID, courseID, lessonID string) (bool, error) {
	var added bool
	err := withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO completed_lessons (learner_id, course_id, lesson_id, completed_at)
			 VALUES ($1,$2,$3,$4)
			 ON CONFLICT (learner_id, course_id, lesson_id) DO NOTHING`,
			learnerID, courseID, lessonID, time.Now().Unix())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		added = n > 0
		return err
	})
	return added, err
}

func (s *SQLStore) UpsertQuizResult(ctx context.Context, learnerID, courseID string, qr QuizResult) (int, error) {
	ajson, err := json.Marshal(qr.Answers)
	if err != nil {
		return 0, err
	}
	var attempt int
	err = withRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`INSERT INTO quiz_results
			   (learner_id, course_id, lesson_id, score, total_points, answers_json, attempt, completed_at)
			 VALUES ($1,$2,$3,$4,$5,$6,1,$7)
			 ON CONFLICT (learner_id, course_id, lesson_id) DO UPDATE SET
			   score=EXCLUDED.score, total_points=EXCLUDED.total_points,
			   answers_json=EXCLUDED.answers_json,
			   attempt=quiz_results.attempt+1,
			   completed_at=EXCLUDED.completed_at
			 RETURNING attempt`,
			learnerID, courseID, qr.LessonID, qr.Score, qr.TotalPoints,
			string(ajson), qr.CompletedAt.Unix()).Scan(&attempt)
	})
	return attempt, err
}

func (s *SQLStore) UpsertAssignment(ctx context.Context, learnerID, courseID string, sub AssignmentSubmission) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO assignment_submissions
			   (learner_id, course_id, lesson_id, submission_text, submitted_at, graded)
			 VALUES ($1,$2,$3,$4,$5,FALSE)
			 ON CONFLICT (learner_id, course_id, lesson_id) DO UPDATE SET
			   submission_text=EXCLUDED.submission_text,
			   submitted_at=EXCLUDED.submitted_at,
			   graded=FALSE, grade=NULL, feedback=NULL, graded_at=NULL`,
			learnerID, courseID, sub.LessonID, sub.Text, sub.SubmittedAt.Unix())
		return err
	})
}

func (s *SQLStore) AppendExamResult(ctx context.Context, learnerID, courseID string, er ExamResult) error {
	ajson, err := json.Marshal(er.Answers)
	if err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO exam_results
			   (learner_id, course_id, lesson_id, attempt_id, score, total_points,
			    percentage, passed, answers_json, started_at, completed_at, time_spent_minutes)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			learnerID, courseID, er.LessonID, er.AttemptID, er.Score, er.TotalPoints,
			er.Percentage, er.Passed, string(ajson),
			er.StartedAt.Unix(), er.CompletedAt.Unix(), er.TimeSpentMinutes)
		return err
	})
}

func (s *SQLStore) MarkCompleted(ctx context.Context, learnerID, courseID string, at time.Time) (bool, error) {
	var flipped bool
	err := withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE progress_records SET completed=TRUE, completed_at=$1
			  WHERE learner_id=$2 AND course_id=$3 AND completed=FALSE`,
			at.Unix(), learnerID, courseID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		flipped = n > 0
		return err
	})
	return flipped, err
}

func (s *SQLStore) Touch(ctx context.Context, learnerID, courseID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE progress_records SET last_accessed_at=$1
		  WHERE learner_id=$2 AND course_id=$3`,
		at.Unix(), learnerID, courseID)
	return err
}

func (s *SQLStore) StampCertificate(ctx context.Context, learnerID, courseID string, stamp CertificateStamp) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE progress_records
			    SET cert_issued=TRUE, cert_issued_at=$1, cert_id=$2
			  WHERE learner_id=$3 AND course_id=$4`,
			stamp.IssuedAt.Unix(), stamp.CertificateID, learnerID, courseID)
		return err
	})
}
