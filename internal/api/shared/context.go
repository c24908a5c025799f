package shared

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type of request-scoped context keys.
type ContextKey string

const (
	// PrincipalIDContextKey holds the authenticated principal.
	PrincipalIDContextKey ContextKey = "principalID"

	// TraceIDKey holds the request trace ID.
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID adds a fresh trace ID to ctx.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, uuid.NewString())
}

// GetTraceID returns the trace ID in ctx, or "".
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// WithPrincipalID stores an authenticated principal in ctx.
func WithPrincipalID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, PrincipalIDContextKey, id)
}

// PrincipalID returns the authenticated principal stored in ctx.
func PrincipalID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(PrincipalIDContextKey).(int64)
	return id, ok && id > 0
}
