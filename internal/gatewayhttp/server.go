package gatewayhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/relaykit/messages-gateway/internal/correlate"
	"github.com/relaykit/messages-gateway/internal/observability"
	obsmiddleware "github.com/relaykit/messages-gateway/internal/observability/middleware"
	"github.com/relaykit/messages-gateway/internal/upstream"
)

// Config carries everything the router needs to wire routes and middleware.
type Config struct {
	Client          *upstream.Client
	Store           *correlate.Store
	EventLog        *observability.EventLog
	Health          ReadinessChecker
	PingInterval    time.Duration
	RequestTimeout  time.Duration
	MaxRequestBytes int64
}

// Server is the gateway's HTTP surface: a chi router plus the http.Server
// lifecycle wrapper the application layer starts and shuts down.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the router and wraps it in a http.Server bound to addr.
func NewServer(cfg Config, addr string) *Server {
	r := chi.NewRouter()

	r.Use(obsmiddleware.RequestIDGeneration)
	r.Use(obsmiddleware.RequestIDPropagation)
	r.Use(obsmiddleware.TraceContextExtraction)
	r.Use(obsmiddleware.Logging(slog.Default()))
	r.Use(recovery)
	if cfg.MaxRequestBytes > 0 {
		r.Use(requestSizeLimit(cfg.MaxRequestBytes))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:           300,
		OptionsPassthrough: false,
	}))

	r.Get("/health", healthHandler())
	r.Get("/ready", readinessHandler(cfg.Health))
	r.Get("/", bannerHandler())
	r.Get("/test-connection", testConnectionHandler(cfg.Client))

	messages := &MessagesHandler{
		Client:         cfg.Client,
		Store:          cfg.Store,
		EventLog:       cfg.EventLog,
		PingInterval:   cfg.PingInterval,
		RequestTimeout: cfg.RequestTimeout,
	}
	r.Post("/v1/messages", messages.ServeHTTP)
	r.Post("/v1/messages/count_tokens", (&CountTokensHandler{}).ServeHTTP)

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: r,
			// Streaming responses are bounded by the request coordinator's own
			// context timeout, not the http.Server's read/write deadlines.
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start begins serving in a background goroutine and returns a channel that
// receives the terminal error from ListenAndServe (nil on graceful Shutdown).
func (s *Server) Start(ctx context.Context) (<-chan error, error) {
	errCh := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	return errCh, nil
}

// Shutdown gracefully drains in-flight requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
