package colstore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with colstore-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithColumn adds a column path field to the logger.
func (l *Logger) WithColumn(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("column", path),
	}
}

// WithWidth adds a width field to the logger.
func (l *Logger) WithWidth(width int) *Logger {
	return &Logger{
		Logger: l.Logger.With("width", width),
	}
}

// WithBackupID adds a backup ID field to the logger.
func (l *Logger) WithBackupID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("backup_id", id),
	}
}

// LogOpen logs the outcome of opening a column.
func (l *Logger) LogOpen(ctx context.Context, path string, mode Mode, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"column", path,
			"mode", mode.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "open completed",
			"column", path,
			"mode", mode.String(),
		)
	}
}

// LogBackup logs a backup operation.
func (l *Logger) LogBackup(ctx context.Context, id string, files int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "backup failed",
			"backup_id", id,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "backup completed",
			"backup_id", id,
			"files", files,
			"bytes", bytes,
		)
	}
}

// LogRestore logs a restore operation.
func (l *Logger) LogRestore(ctx context.Context, id string, files int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"backup_id", id,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "restore completed",
			"backup_id", id,
			"files", files,
		)
	}
}
