// Package apperror defines the error kinds shared by the service and handler layers.
//
// Services return these; handlers translate them to HTTP status codes in one place
// (see handler.writeError). Classification always goes through errors.Is / errors.As,
// so callers may wrap an AppError with fmt.Errorf("...: %w", err) freely.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUpstream      = errors.New("upstream failure")
	ErrMisconfigured = errors.New("misconfigured")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable, safe to show to the client
	Field   string // optional: input field at fault
	Detail  string // optional: raw cause, shown only outside production
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation on resource.
func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s: %s", resource, message),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means no valid session was presented (401).
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream wraps a store failure. The cause is kept in Detail so handlers can
// decide whether to expose it.
func Upstream(message string, cause error) *AppError {
	e := &AppError{
		Err:     ErrUpstream,
		Message: message,
	}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// Misconfigured is returned when a required setting is missing at request time.
func Misconfigured(message, detail string) *AppError {
	return &AppError{
		Err:     ErrMisconfigured,
		Message: message,
		Detail:  detail,
	}
}
