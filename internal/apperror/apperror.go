// Package apperror defines the typed failures returned by the classroom services.
//
// Every failure carries the HTTP status it maps to, a stable machine-readable
// code and a human-readable message. Sentinels are compared by code, so a copy
// produced by WithMessage or Wrap still satisfies errors.Is against the
// original sentinel.
package apperror

import (
	"errors"
	"net/http"
)

// Error is a typed domain failure.
type Error struct {
	Status  int
	Code    string
	Message string
	Details interface{}
	cause   error
}

// New creates a sentinel failure.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Code + ": " + e.Message + ": " + e.cause.Error()
	}
	return e.Code + ": " + e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error sharing the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the failure with a different message.
func (e *Error) WithMessage(message string) *Error {
	clone := *e
	clone.Message = message
	return &clone
}

// WithDetails returns a copy of the failure carrying structured details.
func (e *Error) WithDetails(details interface{}) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// Wrap returns a copy of the failure that records cause.
func (e *Error) Wrap(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

// ErrUnauthorized is returned when no authenticated identity is attached to the request.
var ErrUnauthorized = New(http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")

// ErrForbidden is returned when the identity lacks the role a route requires.
var ErrForbidden = New(http.StatusForbidden, "FORBIDDEN", "insufficient permissions")

// ErrRateLimited is returned when a caller exceeds a route's request budget.
var ErrRateLimited = New(http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")

// ErrInternal is the failure rendered for unexpected errors.
var ErrInternal = New(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")

// From extracts the typed failure from err, falling back to ErrInternal.
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return ErrInternal, false
}
