package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "resource not found"},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeUnavailable,
				Message: "backend unreachable",
				Cause:   errors.New("connection refused"),
			},
			want: "backend unreachable: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, ErrCodeTimeout, "renew token")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected errors.Is to find the cause")
	}
	if Wrap(nil, ErrCodeTimeout, "noop") != nil {
		t.Errorf("expected nil when wrapping nil")
	}
}

func TestCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusUnauthorized, ErrCodeUnauthorized},
		{http.StatusForbidden, ErrCodeForbidden},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusConflict, ErrCodeConflict},
		{http.StatusBadRequest, ErrCodeValidation},
		{http.StatusUnprocessableEntity, ErrCodeValidation},
		{http.StatusRequestTimeout, ErrCodeTimeout},
		{http.StatusTooManyRequests, ErrCodeRateLimited},
		{http.StatusBadGateway, ErrCodeUnavailable},
		{http.StatusServiceUnavailable, ErrCodeUnavailable},
		{http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			if got := CodeForStatus(tt.status); got != tt.want {
				t.Errorf("CodeForStatus(%d) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestFromStatus_Message(t *testing.T) {
	err := FromStatus(http.StatusUnauthorized, "Invalid username or password")
	if err.Message != "Invalid username or password" || err.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected error: %+v", err)
	}
	if got := FromStatus(http.StatusForbidden, "").Message; got != "Forbidden" {
		t.Errorf("fallback message = %q", got)
	}
}

func TestRetryable(t *testing.T) {
	if IsRetryable(FromStatus(http.StatusUnauthorized, "")) {
		t.Errorf("401 must not be retried")
	}
	if !IsRetryable(FromStatus(http.StatusServiceUnavailable, "")) {
		t.Errorf("503 should be retried")
	}
	if !IsRetryable(errors.New("connection reset")) {
		t.Errorf("plain transport errors should be retried")
	}
	if IsRetryable(nil) {
		t.Errorf("nil is not retryable")
	}
}

func TestUserMessage(t *testing.T) {
	backend := fmt.Errorf("login: %w", FromStatus(http.StatusUnauthorized, "Invalid credentials"))
	if got := UserMessage(backend, "fallback"); got != "Invalid credentials" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(errors.New("boom"), "fallback"); got != "fallback" {
		t.Errorf("UserMessage = %q", got)
	}
	if !IsUnauthorized(backend) || GetCode(backend) != ErrCodeUnauthorized {
		t.Errorf("expected unauthorized code")
	}
}
