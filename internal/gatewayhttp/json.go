package gatewayhttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/relaykit/messages-gateway/internal/messagesapi"
)

// writeJSON writes a JSON response with the given status code.
// Headers and status are written before encoding to avoid buffering; if
// encoding fails afterward, the client may receive a partial body.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeJSONError writes a Messages-API error body with the status matching
// its taxonomy type.
func writeJSONError(ctx context.Context, w http.ResponseWriter, errResp *messagesapi.ErrorResponse) {
	var status int
	switch errResp.Err.Type {
	case "invalid_request_error":
		status = http.StatusBadRequest
	case "authentication_error":
		status = http.StatusUnauthorized
	case "permission_error":
		status = http.StatusForbidden
	case "not_found_error":
		status = http.StatusNotFound
	case "rate_limit_error":
		status = http.StatusTooManyRequests
	case "overloaded_error":
		status = http.StatusServiceUnavailable
	case "api_error":
		status = http.StatusInternalServerError
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(ctx, w, errResp, status)
}
