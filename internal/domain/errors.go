package domain

import (
	"errors"
	"strings"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// Every *ValidationError matches it through errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string
	Message string
	Value   any
}

// ValidationError collects the field errors found while validating an entity
// or a request. It unwraps to ErrValidation and to the optional cause.
type ValidationError struct {
	Fields []FieldError
	Err    error
}

// NewValidationError creates a ValidationError with a single field error.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Fields: []FieldError{{Field: field, Message: message}},
		Err:    err,
	}
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string, value any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message, Value: value})
}

// HasErrors reports whether any field error was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it holds field errors and nil otherwise, so callers
// can build a ValidationError incrementally and return it directly.
func (e *ValidationError) OrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes ErrValidation and the underlying cause to errors.Is/As.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}
