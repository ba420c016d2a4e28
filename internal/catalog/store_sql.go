package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLStore serves catalog snapshots from the courses/lessons tables and
// doubles as the authoring store for instructors.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Snapshot(ctx context.Context, courseID string) (Snapshot, error) {
	var snap Snapshot
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, owner_id, price FROM courses WHERE id=$1`, courseID)
	if err := row.Scan(&snap.Course.ID, &snap.Course.Title, &snap.Course.OwnerID, &snap.Course.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrCourseNotFound
		}
		return Snapshot{}, fmt.Errorf("load course: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content_type, position, questions_json, exam_json
		   FROM lessons WHERE course_id=$1 ORDER BY position ASC`, courseID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load lessons: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l     Lesson
			qjson string
			ejson sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.ContentType, &l.Position, &qjson, &ejson); err != nil {
			return Snapshot{}, err
		}
		l.CourseID = courseID
		if qjson != "" {
			if err := json.Unmarshal([]byte(qjson), &l.Questions); err != nil {
				return Snapshot{}, fmt.Errorf("lesson %s questions: %w", l.ID, err)
			}
		}
		if ejson.Valid && ejson.String != "" {
			var em ExamMeta
			if err := json.Unmarshal([]byte(ejson.String), &em); err != nil {
				return Snapshot{}, fmt.Errorf("lesson %s exam meta: %w", l.ID, err)
			}
			l.Exam = &em
		}
		snap.Lessons = append(snap.Lessons, l)
	}
	return snap, rows.Err()
}

func (s *SQLStore) PutCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, title, owner_id, price)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, price=EXCLUDED.price`,
		c.ID, c.Title, c.OwnerID, c.Price)
	return err
}

func (s *SQLStore) PutLesson(ctx context.Context, l Lesson) error {
	qjson, err := json.Marshal(l.Questions)
	if err != nil {
		return err
	}
	var ejson any
	if l.Exam != nil {
		buf, err := json.Marshal(l.Exam)
		if err != nil {
			return err
		}
		ejson = string(buf)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lessons (id, course_id, title, content_type, position, questions_json, exam_json)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET
		   title=EXCLUDED.title, content_type=EXCLUDED.content_type,
		   position=EXCLUDED.position, questions_json=EXCLUDED.questions_json,
		   exam_json=EXCLUDED.exam_json`,
		l.ID, l.CourseID, l.Title, l.ContentType, l.Position, string(qjson), ejson)
	return err
}
