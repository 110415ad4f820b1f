package tigercache

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with tigercache-specific context, following
// the teacher's logger.go: structured logging with consistent field
// names across the library's own operations.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. If handler is nil,
// uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs at the
// given minimum level.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs
// at the given minimum level.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)})
	return &Logger{Logger: slog.New(handler)}
}

// LogAdd logs an add_document operation.
func (l *Logger) LogAdd(ctx context.Context, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed", "id", id, "error", err)
		return
	}
	l.DebugContext(ctx, "add completed", "id", id)
}

// LogRemove logs a remove_document operation.
func (l *Logger) LogRemove(ctx context.Context, id string, removed bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remove failed", "id", id, "error", err)
		return
	}
	l.DebugContext(ctx, "remove completed", "id", id, "removed", removed)
}

// LogCommit logs a commit operation.
func (l *Logger) LogCommit(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "commit failed", "error", err)
		return
	}
	l.InfoContext(ctx, "commit completed")
}

// LogRollback logs a rollback operation.
func (l *Logger) LogRollback(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rollback failed", "error", err)
		return
	}
	l.InfoContext(ctx, "rollback completed")
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, query string, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "query", query, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "query", query, "results", resultsFound)
}

// LogSnapshot logs a save_to_file/open_file operation.
func (l *Logger) LogSnapshot(ctx context.Context, op, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed", "op", op, "path", path, "error", err)
		return
	}
	l.InfoContext(ctx, "snapshot completed", "op", op, "path", path)
}

// LogEviction logs a cache eviction.
func (l *Logger) LogEviction(ctx context.Context, kind string, key string) {
	l.DebugContext(ctx, "cache eviction", "kind", kind, "key", key)
}

// LogPressureTier logs a memory-pressure tier transition.
func (l *Logger) LogPressureTier(ctx context.Context, tier string, usedBytes, budgetBytes int64) {
	l.InfoContext(ctx, "pressure tier", "tier", tier, "used_bytes", usedBytes, "budget_bytes", budgetBytes)
}
