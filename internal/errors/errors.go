package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates missing or rejected credentials.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeForbidden indicates the caller is authenticated but not allowed (including CSRF failures).
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeRateLimited indicates the backend throttled the request.
	ErrCodeRateLimited ErrorCode = "rate_limited"
	// ErrCodeUnavailable indicates the backend could not be reached or is failing.
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message, shown to users when it came from the backend
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Status is the HTTP status returned by the backend, zero for local errors
	Status int
	// RequestID correlates the failure with backend logs (optional)
	RequestID string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether repeating the same request may succeed.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case ErrCodeUnavailable, ErrCodeTimeout, ErrCodeRateLimited, ErrCodeInternal:
		return true
	default:
		return false
	}
}

// CodeForStatus maps a backend HTTP status to an ErrorCode.
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case status == http.StatusForbidden:
		return ErrCodeForbidden
	case status == http.StatusNotFound:
		return ErrCodeNotFound
	case status == http.StatusConflict:
		return ErrCodeConflict
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case status == http.StatusTooManyRequests:
		return ErrCodeRateLimited
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable:
		return ErrCodeUnavailable
	case status >= 400 && status < 500:
		return ErrCodeValidation
	default:
		return ErrCodeInternal
	}
}

// FromStatus builds the error for a non-2xx backend response.
// message is the backend-provided text; it falls back to the status text.
func FromStatus(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = fmt.Sprintf("unexpected status %d", status)
	}
	return &AppError{
		Code:    CodeForStatus(status),
		Message: message,
		Status:  status,
	}
}

// Unavailable wraps a transport failure talking to the backend.
func Unavailable(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: ErrCodeUnavailable, Message: message, Cause: err}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool {
	return isCode(err, ErrCodeUnauthorized)
}

// IsRetryable reports whether err is an AppError worth retrying.
// Errors that are not AppErrors are treated as transport failures and retried.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable()
	}
	return err != nil
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// UserMessage returns the message to show in a notification.
// Backend messages are passed through; anything else becomes fallback.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
