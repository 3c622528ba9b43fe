package observability

import (
	"context"

	"github.com/relaykit/messages-gateway/internal/observability/middleware"
)

// RequestIDFromContext returns the id minted by the request-id middleware,
// or "" if the middleware never ran.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(middleware.RequestIDContextKey{}).(string)
	return id
}
