// Package memoryservice hosts the HTTP server lifecycle for the reflective
// memory service.
package memoryservice

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgermind/ledgermind/internal/api"
	"github.com/ledgermind/ledgermind/internal/audit"
	"github.com/ledgermind/ledgermind/internal/config"
	"github.com/ledgermind/ledgermind/internal/factory"
	"github.com/ledgermind/ledgermind/internal/logger"
)

// Run starts the memory service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("memory-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	// Cancellable root context bound to SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embed, err := factory.NewEmbeddingProvider(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Embedding provider unavailable")
		return err
	}

	signals, err := factory.NewSignalStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Signal store unavailable")
		return err
	}
	defer func() { _ = signals.Close() }()

	orc, err := factory.NewOracle(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Decision oracle unavailable")
		return err
	}

	trail := audit.NewLog(cfg.AuditDir, "operations", log)
	reg := factory.NewRegistry(ctx, cfg, embed, log)
	svc := factory.NewMemoryService(cfg, reg, trail, log)
	engine := factory.NewReflectionEngine(cfg, svc, signals, orc, trail, log)

	var ping func(context.Context) error
	if p, ok := embed.(interface{ HealthPing(context.Context) error }); ok {
		ping = p.HealthPing
	}

	router := api.NewRouter(
		api.NewMemoryHandler(svc),
		api.NewReflectionHandler(engine, signals, trail),
		api.NewHealthHandler(ping),
	)

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}
