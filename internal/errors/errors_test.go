package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", NewValidationError(ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{"rate limited", NewValidationError(ErrCodeRateLimited, "slow down", nil), http.StatusTooManyRequests},
		{"unauthorized", NewUnauthorizedError(ErrCodeInvalidToken, "no", nil), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError(ErrCodeForbiddenRole, "no", nil), http.StatusForbidden},
		{"not found", NewNotFoundError(ErrCodeNotFound, "gone", nil), http.StatusNotFound},
		{"conflict", NewConflictError(ErrCodeAlreadyApplied, "twice", nil), http.StatusConflict},
		{"ai unavailable", NewAIError(ErrCodeAIUnavailable, "down", nil), http.StatusServiceUnavailable},
		{"ai failure", NewAIError(ErrCodeAIServiceFailed, "bad output", nil), http.StatusBadGateway},
		{"internal", NewInternalError(ErrCodeDatabase, "db", nil), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NewConflictError(ErrCodeAlreadySaved, "saved", nil)), http.StatusConflict},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestAppErrorUnwrapAndContext(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewNetworkError(ErrCodeNetworkTimeout, "upstream failed", cause).WithContext("host", "db")

	if err.Unwrap() != cause {
		t.Errorf("Expected cause to be preserved")
	}
	if err.Context["host"] != "db" {
		t.Errorf("Expected context host=db, got %v", err.Context["host"])
	}
	if !Is(err, ErrorTypeNetwork) {
		t.Errorf("Expected Is to match network type")
	}
	if Is(cause, ErrorTypeNetwork) {
		t.Errorf("Plain errors must not match")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := New(level); err != nil {
			t.Errorf("Expected level %q to be accepted, got %v", level, err)
		}
	}
	if _, err := New("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}
