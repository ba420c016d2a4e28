package certificate

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("certificate not found")
	ErrDuplicate = errors.New("certificate already issued for this learner and course")
)

// Store persists certificates. Insert must be atomic against the
// (learner, course) uniqueness constraint: of two concurrent inserts for
// the same pair, exactly one wins and the other observes ErrDuplicate.
type Store interface {
	Insert(ctx context.Context, c Certificate) error
	Get(ctx context.Context, id string) (Certificate, error)
}
