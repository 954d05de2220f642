package pipeline

import (
	"context"

	"github.com/google/uuid"
)

type correlationKey struct{}

// generatedPrefix marks correlation ids minted by the server itself, as
// opposed to ids supplied by the caller in request metadata.
const generatedPrefix = "srv-"

// GenerateID mints a new server-origin correlation id.
func GenerateID() string {
	return generatedPrefix + uuid.NewString()
}

// WithID associates a correlation id with the context. The association lives
// exactly as long as the context, so cleanup on call exit and isolation
// between concurrent calls come for free.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// IDFromContext returns the active correlation id, if any.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok && id != ""
}

// EnsureID resolves the correlation id for a call and seeds the context with
// it. Resolution order: the caller-supplied id wins; else an id already on
// the context; else a freshly generated server-origin id.
func EnsureID(ctx context.Context, callerID string) (context.Context, string) {
	if callerID != "" {
		return WithID(ctx, callerID), callerID
	}
	if id, ok := IDFromContext(ctx); ok {
		return ctx, id
	}
	id := GenerateID()
	return WithID(ctx, id), id
}
