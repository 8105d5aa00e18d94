package gridgo

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when closing an engine that is already closed.
	ErrClosed = errors.New("grid engine closed")

	// ErrInvalidConfig is returned for configurations that cannot be applied.
	ErrInvalidConfig = errors.New("invalid grid config")

	// ErrRowNotFound indicates a display index that does not resolve to a
	// dataset row.
	ErrRowNotFound = errors.New("row not found")
)

// ValidationError indicates a cell value rejected by a column validator.
//
// The validator's error can be accessed via errors.Unwrap.
type ValidationError struct {
	ColumnID string
	Value    any
	cause    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %v for column %q: %v", e.Value, e.ColumnID, e.cause)
}

func (e *ValidationError) Unwrap() error { return e.cause }
