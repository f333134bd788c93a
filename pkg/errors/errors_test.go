package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "validation", err: NewValidationError("email", "must be a valid email"), expected: http.StatusBadRequest},
		{name: "not found", err: NewNotFoundError("user", "User not found"), expected: http.StatusNotFound},
		{name: "unauthorized", err: NewUnauthorizedError("missing token"), expected: http.StatusUnauthorized},
		{name: "internal", err: NewInternalError("boom", errors.New("db down")), expected: http.StatusInternalServerError},
		{name: "wrapped not found", err: fmt.Errorf("get user: %w", NewNotFoundError("user", "")), expected: http.StatusNotFound},
		{name: "untyped", err: errors.New("plain"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation failed: name - is required", NewValidationError("name", "is required").Error())
	assert.Equal(t, "validation failed: no data", NewValidationError("", "no data").Error())
	assert.Equal(t, "user not found", NewNotFoundError("user", "").Error())
	assert.Equal(t, "User not found", NewNotFoundError("user", "User not found").Error())
	assert.Equal(t, "boom: db down", NewInternalError("boom", errors.New("db down")).Error())
	assert.Equal(t, "boom", NewInternalError("boom", nil).Error())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", NewNotFoundError("user", ""))))
	assert.False(t, IsNotFound(ErrInternal))
	assert.False(t, IsNotFound(nil))
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternalError("failed to list users", cause)

	assert.ErrorIs(t, err, cause)
}
