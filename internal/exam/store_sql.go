package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func unixUTC(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Create(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exam_attempts (id, learner_id, course_id, lesson_id, started_at, deadline, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.LearnerID, a.CourseID, a.LessonID,
		a.StartedAt.Unix(), a.Deadline.Unix(), a.Status)
	if err != nil {
		return fmt.Errorf("create exam attempt: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Attempt, error) {
	var (
		a                 Attempt
		started, deadline int64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, learner_id, course_id, lesson_id, started_at, deadline, status
		   FROM exam_attempts WHERE id=$1`, id)
	if err := row.Scan(&a.ID, &a.LearnerID, &a.CourseID, &a.LessonID, &started, &deadline, &a.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	a.StartedAt = unixUTC(started)
	a.Deadline = unixUTC(deadline)
	return a, nil
}

func (s *SQLStore) MarkSubmitted(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE exam_attempts SET status=$1 WHERE id=$2 AND status=$3`,
		StatusSubmitted, id, StatusInProgress)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLStore) MarkExpired(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE exam_attempts SET status=$1 WHERE id=$2 AND status=$3`,
		StatusExpired, id, StatusInProgress)
	return err
}
