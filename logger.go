package gridgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with grid-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithGrid adds the engine instance ID to the logger.
func (l *Logger) WithGrid(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("grid", id),
	}
}

// LogRecompute logs a filter and sort pass.
func (l *Logger) LogRecompute(ctx context.Context, generation uint64, rows, matched int, offloaded bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recompute failed",
			"generation", generation,
			"rows", rows,
			"offloaded", offloaded,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "recompute completed",
			"generation", generation,
			"rows", rows,
			"matched", matched,
			"offloaded", offloaded,
		)
	}
}

// LogDroppedResult logs a worker result that lost against a newer request.
func (l *Logger) LogDroppedResult(ctx context.Context, generation, current uint64) {
	l.DebugContext(ctx, "stale recompute result dropped",
		"generation", generation,
		"current", current,
	)
}

// LogFallback logs a recompute that could not be offloaded.
func (l *Logger) LogFallback(ctx context.Context, generation uint64, err error) {
	l.DebugContext(ctx, "worker unavailable, recomputing inline",
		"generation", generation,
		"error", err,
	)
}

// LogEdit logs a cell edit.
func (l *Logger) LogEdit(ctx context.Context, rowIndex int, columnID string, err error) {
	if err != nil {
		l.DebugContext(ctx, "cell edit ignored",
			"row", rowIndex,
			"column", columnID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "cell edit applied",
			"row", rowIndex,
			"column", columnID,
		)
	}
}

// LogIngest logs appended rows.
func (l *Logger) LogIngest(ctx context.Context, count, total int) {
	l.DebugContext(ctx, "rows ingested",
		"count", count,
		"total", total,
	)
}
