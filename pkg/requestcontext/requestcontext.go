// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, tests
// inject them without running the HTTP stack.
package requestcontext

import (
	"context"
	"time"

	id "clearcheck/pkg/domain"
)

type (
	operatorIDKey  struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// OperatorID retrieves the authenticated operator from the context.
// Returns the zero value if not set.
func OperatorID(ctx context.Context) id.OperatorID {
	if op, ok := ctx.Value(operatorIDKey{}).(id.OperatorID); ok {
		return op
	}
	return ""
}

// WithOperatorID injects an operator ID into the context.
func WithOperatorID(ctx context.Context, op id.OperatorID) context.Context {
	return context.WithValue(ctx, operatorIDKey{}, op)
}

// RequestID retrieves the correlation ID assigned by middleware.
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// Now returns the request time if middleware pinned one, else wall clock.
// Tests use WithTime for deterministic timestamps.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the request time in the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
