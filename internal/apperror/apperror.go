// Package apperror defines the application's error taxonomy.
//
// Every layer below the HTTP handlers reports failures either as one of the
// typed errors built here or as a plain wrapped error. Handlers map the typed
// ones to 4xx responses; anything else is treated as an opaque store failure
// and becomes a generic 500.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Violation is a single field-level validation failure reported to the caller.
type Violation struct {
	Field   string `json:"field"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
}

type AppError struct {
	Err        error       // actual error
	Message    string      // Human-readable error message
	Field      string      // Optional: field causing the error
	Violations []Violation // Optional: every field that failed validation
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

// ValidationFailed reports a single invalid field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		Field:      field,
		Violations: []Violation{{Field: field, Message: message}},
	}
}

// Invalid reports a request body that failed schema validation.
// message summarises the request ("Invalid message data"); violations
// carry the per-field detail.
func Invalid(message string, violations []Violation) *AppError {
	e := &AppError{
		Err:        ErrValidation,
		Message:    message,
		Violations: violations,
	}
	if len(violations) > 0 {
		e.Field = violations[0].Field
	}
	return e
}

func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s with this %s already exists", resource, field),
		Field:   field,
	}
}

// Unauthorized returns an AppError for failed authentication.
// The message must not reveal which credential check failed.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
