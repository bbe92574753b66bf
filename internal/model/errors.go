package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error unwraps to exactly one of these so callers
// can branch with errors.Is regardless of how deep the error was wrapped.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("authentication error")
	ErrForbidden       = errors.New("authorization error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream error")
	ErrRateLimited     = errors.New("rate limited")
)

// Error is a domain error carrying a client facing message.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NewValidationError(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NewUnauthenticatedError(message string) error {
	return &Error{Kind: ErrUnauthenticated, Message: message}
}

func NewForbiddenError(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

func NewNotFoundError(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func NewConflictError(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

func NewRateLimitedError(message string) error {
	return &Error{Kind: ErrRateLimited, Message: message}
}

// NewUpstreamError keeps the provider's message so it reaches the caller verbatim.
func NewUpstreamError(message string, err error) error {
	return &Error{Kind: ErrUpstream, Message: message, Err: err}
}

// Message returns the client facing message of err, or "" when err is not a
// domain error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
