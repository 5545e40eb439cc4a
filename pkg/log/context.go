package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the logger from the context, falling back to the global one.
func Ctx(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return L()
	}
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithConnection returns a context whose logger is tagged with the
// connection and user that issued the operation.
func WithConnection(ctx context.Context, connectionID, userID string) context.Context {
	l := Ctx(ctx)
	child := l.With().
		Str(FieldConnectionID, connectionID).
		Str(FieldUserID, userID).
		Logger()
	return WithLogger(ctx, child)
}
