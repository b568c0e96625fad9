package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrMissingJobID indicates a dead-letter entry without a job ID
	ErrMissingJobID = errors.New("dead-letter entry requires a job id")

	// ErrMissingQueueName indicates a dead-letter entry without a queue name
	ErrMissingQueueName = errors.New("dead-letter entry requires a queue name")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
// When it wraps a sentinel, errors.Is still matches the sentinel.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap exposes the wrapped sentinel, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
