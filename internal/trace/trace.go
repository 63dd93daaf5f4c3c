// Package trace carries the per-request correlation id through contexts.
package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// NewID returns a fresh correlation id for one inbound request.
func NewID() string {
	return uuid.NewString()
}

// With returns a context carrying the given trace id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From returns the trace id carried by ctx, or "unknown" if none is set.
func From(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return "unknown"
}
