// Package requestcontext carries correlation metadata through a context
// without tying services to a transport.
//
// The submission worker stamps each drain tick; callers embedding the engine
// stamp each inbound request:
//
//	ctx = requestcontext.WithCorrelationID(ctx, requestcontext.NewCorrelationID())
//	id := requestcontext.CorrelationID(ctx)
package requestcontext

import (
	"context"

	"github.com/google/uuid"
)

type correlationIDKey struct{}

// ContextKeyCorrelationID is exported for tests that need context.WithValue.
var ContextKeyCorrelationID = correlationIDKey{}

// CorrelationID retrieves the correlation ID from the context.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyCorrelationID).(string); ok {
		return id
	}
	return ""
}

// WithCorrelationID injects a correlation ID into the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, id)
}

func NewCorrelationID() string {
	return uuid.NewString()
}
