package trace

import (
    "context"

    "github.com/google/uuid"
)

type ctxKey struct{}

// New returns a fresh trace ID.
func New() string { return uuid.NewString() }

// WithTraceID attaches id to ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
    return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the trace ID attached to ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
    id, ok := ctx.Value(ctxKey{}).(string)
    return id, ok
}
