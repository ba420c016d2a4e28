package catalog

import (
	"context"
	"errors"
)

var ErrCourseNotFound = errors.New("course not found")

// Reader is the boundary to the course catalog. The progress engine only
// reads through it; authoring lives on the concrete stores.
type Reader interface {
	Snapshot(ctx context.Context, courseID string) (Snapshot, error)
}
