// Package common defines the error taxonomy and header names shared by the
// server and client layers of oclus. Callers should use errors.Is and
// errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorRateLimited  = errors.New("rate limited")

	// Request validation.
	ErrorInvalidData = errors.New("invalid data")
)

// ConflictError reports a uniqueness violation on a named field, e.g. "email".
type ConflictError struct {
	Field string
}

// NewConflictError returns a conflict on the given field.
func NewConflictError(field string) *ConflictError {
	return &ConflictError{Field: field}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Field)
}

// Is makes errors.Is(err, ErrorConflict) hold for any ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrorConflict
}

// ConflictField extracts the conflicting field name from err, if any.
func ConflictField(err error) (string, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Field, true
	}
	return "", false
}
