package exam

import (
	"context"
	"errors"
)

var ErrAttemptNotFound = errors.New("attempt not found")

// AttemptStore persists attempt tokens. MarkSubmitted is a compare-and-set
// from in_progress, so two racing submissions of the same attempt grade at
// most once.
type AttemptStore interface {
	Create(ctx context.Context, a Attempt) error
	Get(ctx context.Context, id string) (Attempt, error)
	MarkSubmitted(ctx context.Context, id string) (bool, error)
	MarkExpired(ctx context.Context, id string) error
}
