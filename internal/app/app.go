package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relaykit/messages-gateway/internal/config"
	"github.com/relaykit/messages-gateway/internal/correlate"
	"github.com/relaykit/messages-gateway/internal/gatewayhttp"
	"github.com/relaykit/messages-gateway/internal/observability"
	"github.com/relaykit/messages-gateway/internal/upstream"
)

// App orchestrates the lifecycle of the gateway server and its supporting
// stores.
type App struct {
	server   *gatewayhttp.Server
	store    *correlate.Store
	eventLog *observability.EventLog
	health   *Health
	addr     string
}

// New wires the upstream client, correlation store, event log, and HTTP
// server from cfg.
func New(cfg *config.Config) (*App, error) {
	client, err := upstream.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	store := correlate.NewStore(cfg.ConversationTTL, cfg.ConversationSweep)

	var eventLog *observability.EventLog
	if cfg.LogEvents {
		eventLog, err = observability.NewEventLog(cfg.LogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
	}

	health := NewHealth()

	server := gatewayhttp.NewServer(gatewayhttp.Config{
		Client:          client,
		Store:           store,
		EventLog:        eventLog,
		Health:          health,
		PingInterval:    cfg.PingInterval,
		RequestTimeout:  cfg.RequestTimeout,
		MaxRequestBytes: cfg.MaxRequestBytes,
	}, ":"+cfg.Port)

	return &App{
		server:   server,
		store:    store,
		eventLog: eventLog,
		health:   health,
		addr:     cfg.Port,
	}, nil
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	slog.InfoContext(gCtx, "starting gateway server", "port", a.addr)
	serverErrCh, err := a.server.Start(gCtx)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)
	a.health.SetReady(true)

	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()

	a.health.SetReady(false)
	slog.InfoContext(gCtx, "shutting down services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	a.store.Close()
	if err := a.eventLog.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
