package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"validation", NewValidationError("rating must be between %d and %d", 1, 5), ErrValidation},
		{"unauthenticated", NewUnauthenticatedError("Invalid credentials"), ErrUnauthenticated},
		{"forbidden", NewForbiddenError("Admin access required"), ErrForbidden},
		{"not found", NewNotFoundError("Event not found"), ErrNotFound},
		{"conflict", NewConflictError("Already registered for this event"), ErrConflict},
		{"rate limited", NewRateLimitedError("Too many attempts"), ErrRateLimited},
		{"upstream", NewUpstreamError("Invalid ApiKey", nil), ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("service: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.kind)
			assert.Equal(t, tt.err.Error(), Message(wrapped))
		})
	}
}

func TestErrorKinds_Distinct(t *testing.T) {
	err := NewConflictError("duplicate")
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestUpstreamError_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("Failed to reach Ticketmaster", cause)

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to reach Ticketmaster", Message(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMessage_PlainError(t *testing.T) {
	assert.Empty(t, Message(errors.New("boom")))
	assert.Empty(t, Message(nil))
}
