package vecflat

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vecflat-specific helpers.
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
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(1000),
		})),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, requested, added int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"requested", requested,
			"added", added,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "add completed",
		"count", added,
	)
}

// LogDelete logs a mark-deleted operation.
func (l *Logger) LogDelete(ctx context.Context, count int, pending int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"count", count,
			"pending_reuse", pending,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "delete completed",
		"count", count,
		"pending_reuse", pending,
	)
}

// LogSearch logs a k-nearest-neighbor search.
func (l *Logger) LogSearch(ctx context.Context, queries, k int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"queries", queries,
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"queries", queries,
		"k", k,
	)
}

// LogRangeSearch logs a range search.
func (l *Logger) LogRangeSearch(ctx context.Context, queries int, radius float32, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "range search failed",
			"queries", queries,
			"radius", radius,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "range search completed",
		"queries", queries,
		"radius", radius,
		"results", results,
	)
}

// LogReset logs a reset.
func (l *Logger) LogReset(ctx context.Context, dropped int) {
	l.DebugContext(ctx, "index reset",
		"dropped", dropped,
	)
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, op, key string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot "+op+" failed",
			"key", key,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot "+op+" completed",
		"key", key,
		"bytes", size,
	)
}
