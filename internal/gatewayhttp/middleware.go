package gatewayhttp

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/relaykit/messages-gateway/internal/messagesapi"
)

// recovery recovers from panics in HTTP handlers, logs the stack trace, and
// answers with a generic 500 in the same error shape every other failure
// path in this gateway uses. The logging middleware runs with
// RecoverPanics disabled specifically to leave this as the sole place a
// panic is caught and recorded.
func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				ctx := r.Context()
				slog.ErrorContext(ctx, "panic recovered", "error", rec, "stack", string(debug.Stack()))
				writeJSONError(ctx, w, messagesapi.NewErrorResponse("api_error", http.StatusText(http.StatusInternalServerError)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestSizeLimit enforces a maximum request body size. Handlers that read
// the body past the limit receive *http.MaxBytesError.
func requestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
