package crud

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidID is returned when an id is empty after sanitization
	ErrInvalidID = errors.New("invalid ID provided")
	// ErrNotFound is returned by repositories when an update targets a missing record
	ErrNotFound = errors.New("entity not found")
	// ErrConflict matches every ConflictError
	ErrConflict = errors.New("conflict")
)

// ConflictError reports a natural key already held by another record
type ConflictError struct {
	Message string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrConflict) match any ConflictError
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Conflict builds a ConflictError
func Conflict(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
