// Package main provides the assistant API server entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/healthdesk/assistant/internal/app"
	"github.com/healthdesk/assistant/internal/config"
	"github.com/healthdesk/assistant/internal/observability"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting health assistant API")

	ctx := context.Background()
	assistant, err := app.New(ctx, cfg, logger, app.Options{History: true, Migrate: true})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize assistant")
	}
	defer func() {
		if err := assistant.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to release resources")
		}
	}()

	routerCfg := RouterConfig{
		Logger:         logger,
		Chat:           assistant.Chat,
		History:        assistant.History,
		Locator:        assistant.Locator,
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if assistant.DB != nil {
		routerCfg.DB = assistant.DB
	}
	router := NewRouter(routerCfg)

	addr := cfg.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
