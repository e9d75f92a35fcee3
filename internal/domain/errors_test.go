package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Invalid input",
			code:      ErrInvalidInput,
			message:   "Request body is not valid JSON",
			details:   "unexpected end of JSON input",
			requestID: "req-123",
		},
		{
			name:      "Database error",
			code:      ErrDatabaseError,
			message:   "Failed to load score history",
			details:   "connection refused",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, tt.details, tt.requestID)

			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.details, err.Details)
			assert.Equal(t, tt.requestID, err.RequestID)
			assert.WithinDuration(t, time.Now().UTC(), err.Timestamp, time.Minute)
			assert.Equal(t, tt.code+": "+tt.message, err.Error())
		})
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		message string
		value   interface{}
	}{
		{"String validation error", "bloodPressure", "expected SYS/DIA", "120-80"},
		{"Integer validation error", "limit", "must be positive", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)

			assert.Equal(t, tt.field, err.Field)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.value, err.Value)
			assert.Equal(t, "validation error for field '"+tt.field+"': "+tt.message, err.Error())
		})
	}
}

func TestErrNotFoundWraps(t *testing.T) {
	wrapped := fmt.Errorf("latest record for user u1: %w", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestErrorConstants(t *testing.T) {
	expected := map[string]string{
		ErrInvalidInput:   "INVALID_INPUT",
		ErrDatabaseError:  "DATABASE_ERROR",
		ErrExternalAPI:    "EXTERNAL_API_ERROR",
		ErrRateLimit:      "RATE_LIMIT_EXCEEDED",
		ErrInternalServer: "INTERNAL_SERVER_ERROR",
		ErrValidation:     "VALIDATION_ERROR",
		ErrNotFoundCode:   "NOT_FOUND",
	}
	for actual, want := range expected {
		assert.Equal(t, want, actual)
	}
}
