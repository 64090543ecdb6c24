package logging

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with convenience helpers for request-scoped fields
type Logger struct {
	*slog.Logger
}

// NewLogger creates a logger. Development mode uses human-readable text
// output at debug level; production uses JSON at info level.
func NewLogger(development bool) *Logger {
	var handler slog.Handler
	if development {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithFields returns a logger with the given fields attached to every record
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// Log emits a record at the given level, mirroring slog.Logger.Log
func (l *Logger) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l.Logger.Log(ctx, level, msg, args...)
}
