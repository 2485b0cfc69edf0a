// Package logging provides slog helpers shared by the HTTP layer and the
// background refresh job: context-carried loggers and small wrappers that keep
// log call sites uniform across the application.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type contextKey string

const loggerKey contextKey = "logger"

// NewLogger creates the application root logger. Verbose enables debug level.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger carried by ctx, or slog.Default() when the
// context has none.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// LogError logs an error with a consistent attribute shape.
func LogError(logger *slog.Logger, msg string, err error, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	args = append([]any{slog.Any("error", err)}, args...)
	logger.Error(msg, args...)
}

// LogOperation records a named operation at info level.
func LogOperation(logger *slog.Logger, operation string, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	args = append([]any{slog.String("operation", operation)}, args...)
	logger.Info("operation", args...)
}

// LogHTTPRequest records one served HTTP request.
func LogHTTPRequest(logger *slog.Logger, method, path string, status int, durationMs float64, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	args = append([]any{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	}, args...)
	logger.Info("http_request", args...)
}

// SafeCloseWithLogging closes the closer and logs a failure instead of
// returning it. Intended for defer sites where the error is not actionable.
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		LogError(logger, "failed to close resource", err, slog.String("resource", name))
	}
}
