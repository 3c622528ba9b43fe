package gatewayhttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ReadinessChecker reports whether the gateway is ready to serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}, http.StatusOK)
	}
}

func bannerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Messages-to-Responses gateway\n"))
	}
}

func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if checker.IsReady() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
}

// Pinger performs a minimal round-trip against the upstream.
type Pinger interface {
	Ping(ctx context.Context) (string, error)
}

// testConnectionHandler round-trips a minimal request to the upstream to
// verify credentials and network reachability.
func testConnectionHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pinger.Ping(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "upstream test connection failed", "error", err)
			writeJSONError(r.Context(), w, upstreamErrorResponse(err))
			return
		}
		writeJSON(r.Context(), w, map[string]any{"status": "ok", "response_id": id}, http.StatusOK)
	}
}
