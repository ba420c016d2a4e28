package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:iremehub.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/iremehub?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates all engine tables if missing. Exposed so tests can
// run against an in-memory sqlite handle.
func EnsureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  display_name TEXT,
  role TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  price REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lessons (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  content_type TEXT NOT NULL,
  position INTEGER NOT NULL,
  questions_json TEXT NOT NULL DEFAULT '[]',
  exam_json TEXT
);

CREATE TABLE IF NOT EXISTS progress_records (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  status TEXT NOT NULL,
  completed BOOLEAN NOT NULL DEFAULT FALSE,
  completed_at INTEGER,
  last_accessed_at INTEGER NOT NULL,
  cert_issued BOOLEAN NOT NULL DEFAULT FALSE,
  cert_issued_at INTEGER,
  cert_id TEXT,
  PRIMARY KEY (learner_id, course_id)
);

CREATE TABLE IF NOT EXISTS completed_lessons (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  completed_at INTEGER NOT NULL,
  PRIMARY KEY (learner_id, course_id, lesson_id)
);

CREATE TABLE IF NOT EXISTS quiz_results (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  total_points REAL NOT NULL DEFAULT 0,
  answers_json TEXT NOT NULL,
  attempt INTEGER NOT NULL DEFAULT 1,
  completed_at INTEGER NOT NULL,
  PRIMARY KEY (learner_id, course_id, lesson_id)
);

CREATE TABLE IF NOT EXISTS assignment_submissions (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  submission_text TEXT NOT NULL,
  submitted_at INTEGER NOT NULL,
  graded BOOLEAN NOT NULL DEFAULT FALSE,
  grade REAL,
  feedback TEXT,
  graded_at INTEGER,
  PRIMARY KEY (learner_id, course_id, lesson_id)
);

CREATE TABLE IF NOT EXISTS exam_results (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  attempt_id TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  total_points REAL NOT NULL DEFAULT 0,
  percentage REAL NOT NULL DEFAULT 0,
  passed BOOLEAN NOT NULL DEFAULT FALSE,
  answers_json TEXT NOT NULL,
  started_at INTEGER NOT NULL,
  completed_at INTEGER NOT NULL,
  time_spent_minutes INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS exam_attempts (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  started_at INTEGER NOT NULL,
  deadline INTEGER NOT NULL,
  status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS certificates (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  issued_at INTEGER NOT NULL,
  grade TEXT NOT NULL,
  completion_date INTEGER NOT NULL,
  hours_completed REAL NOT NULL,
  UNIQUE (learner_id, course_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  display_name TEXT,
  role TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  price DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lessons (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  content_type TEXT NOT NULL,
  position INTEGER NOT NULL,
  questions_json TEXT NOT NULL DEFAULT '[]',
  exam_json TEXT
);

CREATE TABLE IF NOT EXISTS progress_records (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  status TEXT NOT NULL,
  completed BOOLEAN NOT NULL DEFAULT FALSE,
  completed_at BIGINT,
  last_accessed_at BIGINT NOT NULL,
  cert_issued BOOLEAN NOT NULL DEFAULT FALSE,
  cert_issued_at BIGINT,
  cert_id TEXT,
  PRIMARY KEY (learner_id, course_id)
);

CREATE TABLE IF NOT EXISTS completed_lessons (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  completed_at BIGINT NOT NULL,
  PRIMARY KEY (learner_id, course_id, lesson_id)
);

CREATE TABLE IF NOT EXISTS quiz_results (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_points DOUBLE PRECISION NOT NULL DEFAULT 0,
  answers_json TEXT NOT NULL,
  attempt INTEGER NOT NULL DEFAULT 1,
  completed_at BIGINT NOT NULL,
  PRIMARY KEY (learner_id, course_id, lesson_id)
);

CREATE TABLE IF NOT EXISTS assignment_submissions (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  submission_text TEXT NOT NULL,
  submitted_at BIGINT NOT NULL,
  graded BOOLEAN NOT NULL DEFAULT FALSE,
  grade DOUBLE PRECISION,
  feedback TEXT,
  graded_at BIGINT,
  PRIMARY KEY (learner_id, course_id, lesson_id)
);

CREATE TABLE IF NOT EXISTS exam_results (
  id BIGSERIAL PRIMARY KEY,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  attempt_id TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_points DOUBLE PRECISION NOT NULL DEFAULT 0,
  percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
  passed BOOLEAN NOT NULL DEFAULT FALSE,
  answers_json TEXT NOT NULL,
  started_at BIGINT NOT NULL,
  completed_at BIGINT NOT NULL,
  time_spent_minutes INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS exam_attempts (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  started_at BIGINT NOT NULL,
  deadline BIGINT NOT NULL,
  status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS certificates (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  issued_at BIGINT NOT NULL,
  grade TEXT NOT NULL,
  completion_date BIGINT NOT NULL,
  hours_completed DOUBLE PRECISION NOT NULL,
  UNIQUE (learner_id, course_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
