package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure taxonomy. NotFound is about the primary
// target of an operation; InvalidReference is about a secondary reference
// the operation depends on (a dependent record naming a missing patient).
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidReference = errors.New("invalid patient id")
	ErrConflict         = errors.New("duplicate record")
	ErrPersistence      = errors.New("persistence failure")
	ErrForbidden        = errors.New("operation not permitted for session")
)

// ValidationError represents a single missing or malformed input field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ValidationErrors aggregates every field failure found in one submission,
// reported synchronously before any persistence attempt.
type ValidationErrors []*ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, v := range e {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the names of every failing field
func (e ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, v := range e {
		fields = append(fields, v.Field)
	}
	return fields
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool {
	var single *ValidationError
	var multi ValidationErrors
	return errors.As(err, &single) || errors.As(err, &multi)
}
