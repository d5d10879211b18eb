package telemetry

import (
	"context"

	"github.com/google/uuid"
)

type queryIDKey struct{}

// NewQueryID returns a fresh random id for one user query.
func NewQueryID() string {
	return "q-" + uuid.NewString()
}

// WithQueryID returns a child context that carries id.
// If ctx is nil, context.Background() is used.
func WithQueryID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, queryIDKey{}, id)
}

// QueryIDFromContext returns the query id from ctx, if present.
// Returns "", false if the value is missing or empty.
func QueryIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(queryIDKey{}).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
