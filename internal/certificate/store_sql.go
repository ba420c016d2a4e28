package certificate

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Insert(ctx context.Context, c Certificate) error {
	// the unique (learner_id, course_id) constraint is the at-most-once
	// guarantee; a losing concurrent writer affects zero rows
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO certificates
		   (id, learner_id, course_id, issued_at, grade, completion_date, hours_completed)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (learner_id, course_id) DO NOTHING`,
		c.ID, c.LearnerID, c.CourseID, c.IssuedAt.Unix(), c.Grade,
		c.CompletionDate.Unix(), c.HoursCompleted)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Certificate, error) {
	var (
		c              Certificate
		issued, comped int64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, learner_id, course_id, issued_at, grade, completion_date, hours_completed
		   FROM certificates WHERE id=$1`, id)
	if err := row.Scan(&c.ID, &c.LearnerID, &c.CourseID, &issued, &c.Grade, &comped, &c.HoursCompleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Certificate{}, ErrNotFound
		}
		return Certificate{}, err
	}
	c.IssuedAt = time.Unix(issued, 0).UTC()
	c.CompletionDate = time.Unix(comped, 0).UTC()
	return c, nil
}
