package identity

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

var ErrUserNotFound = errors.New("user not found")

// Directory is the read-only boundary to the identity collaborator. The
// engine only ever needs a display name for certificate rendering.
type Directory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

type SQLDirectory struct{ db *sql.DB }

func NewSQLDirectory(db *sql.DB) *SQLDirectory { return &SQLDirectory{db: db} }

func (d *SQLDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	var display, username string
	err := d.db.QueryRowContext(ctx,
		`SELECT COALESCE(display_name, ''), username FROM users WHERE id=$1`, userID).
		Scan(&display, &username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if display != "" {
		return display, nil
	}
	return username, nil
}

// MemoryDirectory is a fixed name table for tests.
type MemoryDirectory struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{names: map[string]string{}}
}

func (d *MemoryDirectory) Put(userID, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[userID] = name
}

func (d *MemoryDirectory) DisplayName(_ context.Context, userID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.names[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return name, nil
}
