package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks request data rejected by a service.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates the request clashes with current state.
	ErrConflict = errors.New("conflict")
	// ErrForbidden indicates the actor lacks a permission.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// FieldError reports a single rejected input field.
type FieldError struct {
	Field  string
	Reason string
}

// NewFieldError builds a FieldError.
func NewFieldError(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// FieldName exposes the offending field to HTTP problem responses.
func (e *FieldError) FieldName() string {
	return e.Field
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// UserSafeMessage strips internal detail from errors shown to users.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err.Error()
	case errors.Is(err, ErrForbidden):
		return "You do not have access to this action"
	default:
		return "Something went wrong, please try again"
	}
}
