package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey is the key type used to store the logger in a context.
// Using a custom type prevents collisions.
type contextKey string

const loggerKey = contextKey("logger")

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithRunLogger derives a run-scoped logger enriched with a fresh run ID
// and stores it in the context. Returns the context and the run ID.
func WithRunLogger(ctx context.Context, base *slog.Logger) (context.Context, string) {
	runID := uuid.NewString()
	runLogger := base.With(slog.String("run_id", runID))
	return WithLogger(ctx, runLogger), runID
}

// FromCtx retrieves the logger from the context, falling back to the
// default logger when none was stored.
func FromCtx(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}
