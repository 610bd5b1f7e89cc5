package notify

import (
	"context"
	"log/slog"
	"time"
)

// Severity constants recognised by notification sinks.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Notification is a user-facing message (a toast in the console, a line in the CLI).
type Notification struct {
	Severity   string
	Message    string
	Details    string
	OccurredAt time.Time
}

// Error builds an error notification.
func Error(message, details string) Notification {
	return Notification{Severity: SeverityError, Message: message, Details: details, OccurredAt: time.Now()}
}

// Sink describes a destination capable of presenting notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, n Notification) error

// Notify implements the Sink interface.
func (f SinkFunc) Notify(ctx context.Context, n Notification) error {
	if f == nil {
		return nil
	}
	return f(ctx, n)
}

// LogSink writes notifications to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// Notify implements the Sink interface.
func (s LogSink) Notify(ctx context.Context, n Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch n.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	}
	logger.Log(ctx, level, n.Message, "severity", n.Severity, "details", n.Details)
	return nil
}
