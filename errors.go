package hitaccum

import (
	"errors"
	"fmt"

	"github.com/hupe1980/hitaccum/accum"
	"github.com/hupe1980/hitaccum/boundary"
	"github.com/hupe1980/hitaccum/result"
)

var (
	// ErrInvalidInput is returned when hits, boundary tables or options
	// violate a precondition. Nothing is written.
	ErrInvalidInput = errors.New("hitaccum: invalid input")

	// ErrResourceExhausted is returned when the aggregate maps outgrow the
	// memory limit. The call is not retried.
	ErrResourceExhausted = errors.New("hitaccum: resource exhausted")

	// ErrOutOfRange is returned when a hit references an embedding outside
	// its boundary table.
	ErrOutOfRange = accum.ErrOutOfRange

	// ErrInvalidBoundary is returned for malformed boundary tables.
	ErrInvalidBoundary = boundary.ErrInvalidBoundary

	// ErrScoreOutOfRange is returned for adjusted scores the exact
	// accumulator cannot represent. It also matches ErrInvalidInput.
	ErrScoreOutOfRange = accum.ErrScoreOutOfRange
)

// ShapeError describes a violated shape or parameter precondition.
type ShapeError = accum.ShapeError

// OutOfRangeError reports the hit that referenced an unknown embedding.
type OutOfRangeError = accum.OutOfRangeError

// IOError reports a failed output write.
type IOError = result.IOError

func invalidInput(field string, got, want int, reason string) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, &ShapeError{Field: field, Got: got, Want: want, Reason: reason})
}

func translateError(err error) error {
	if err == nil || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrResourceExhausted) {
		return err
	}

	switch {
	case errors.Is(err, accum.ErrInvalidHits),
		errors.Is(err, boundary.ErrInvalidBoundary),
		errors.Is(err, accum.ErrScoreOutOfRange):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, accum.ErrMemoryBudget):
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}

	return err
}
