package accum

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHits is returned when the hit matrices or call parameters
	// violate a precondition. It is detected before any accumulation starts.
	ErrInvalidHits = errors.New("accum: invalid hits")

	// ErrOutOfRange is returned when a hit references an embedding outside
	// its boundary table.
	ErrOutOfRange = errors.New("accum: embedding index out of range")

	// ErrScoreOutOfRange is returned when an adjusted score cannot be
	// represented by the exact accumulator.
	ErrScoreOutOfRange = errors.New("accum: adjusted score out of range")

	// ErrMemoryBudget is returned when aggregate maps outgrow the memory budget.
	ErrMemoryBudget = errors.New("accum: aggregate memory budget exhausted")
)

// ShapeError describes a precondition violation on the hit matrices.
type ShapeError struct {
	Field  string
	Got    int
	Want   int
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Got == 0 && e.Want == 0 {
		return fmt.Sprintf("accum: invalid %s: %s", e.Field, e.Reason)
	}
	if e.Reason != "" {
		return fmt.Sprintf("accum: invalid %s: %s (got %d, want %d)", e.Field, e.Reason, e.Got, e.Want)
	}
	return fmt.Sprintf("accum: invalid %s: got %d, want %d", e.Field, e.Got, e.Want)
}

func (e *ShapeError) Unwrap() error { return ErrInvalidHits }

// OutOfRangeError reports the hit that referenced an unknown embedding.
type OutOfRangeError struct {
	Side  string // "query" or "target"
	Row   int
	Col   int
	Index int64
	Limit int64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("accum: %s embedding %d at row %d col %d out of range [0, %d)", e.Side, e.Index, e.Row, e.Col, e.Limit)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// ScoreError reports an adjusted score the accumulator cannot represent.
type ScoreError struct {
	Row   int
	Col   int
	Score float32
}

func (e *ScoreError) Error() string {
	return fmt.Sprintf("accum: adjusted score %g at row %d col %d exceeds %g", e.Score, e.Row, e.Col, float64(MaxScore))
}

func (e *ScoreError) Unwrap() error { return ErrScoreOutOfRange }
