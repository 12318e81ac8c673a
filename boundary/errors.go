package boundary

import (
	"errors"
	"fmt"
)

// ErrInvalidBoundary is returned when a boundary table is malformed.
var ErrInvalidBoundary = errors.New("boundary: invalid boundary table")

// ValidationError describes the first malformed entry found in a boundary table.
//
// It satisfies errors.Is(err, ErrInvalidBoundary).
type ValidationError struct {
	Kind     Kind
	Position int
	Value    int64
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("boundary: invalid %s table: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("boundary: invalid %s table at position %d (value %d): %s", e.Kind, e.Position, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidBoundary }
