package main

import (
	"context"
	"errors"
	"ev-route-service/internal/api"
	"ev-route-service/internal/app"
	"ev-route-service/internal/config"
	"ev-route-service/internal/platform/logging"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	loaded := config.LoadDotEnv()
	cfg := config.Load()
	logger := logging.Setup(cfg.Env)

	if !loaded {
		logger.Info().Msg("No .env file found (using environment variables)")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	a, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	router := api.NewRouter(a.Planner, a.Catalog, logger)

	// Planning makes several sequential provider calls, so the write timeout
	// must outlast the plan deadline.
	writeTimeout := 120 * time.Second
	if t := cfg.PlanTimeout + 10*time.Second; t > writeTimeout {
		writeTimeout = t
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("routing", cfg.RoutingProvider).
			Str("catalog", cfg.CatalogSource).
			Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
