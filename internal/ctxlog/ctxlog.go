// Package ctxlog carries the run's slog.Logger through context.Context so
// that the engine, the runner and module code log with the same handler and
// the same scoped attributes (deploy hash, step) without threading a logger
// parameter through every call.
package ctxlog

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// With returns a copy of ctx whose logger adds args to every record. It is
// how an execution or a scenario step scopes the logs emitted beneath it.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

// FromContext returns the logger carried by ctx. Packages used outside a
// configured App (tests, library callers) get slog.Default() instead of a
// panic.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
