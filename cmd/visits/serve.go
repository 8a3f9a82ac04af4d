package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visits/internal/api"
	"visits/internal/config"
	"visits/internal/database"
	"visits/internal/domain"
	"visits/internal/events"
	"visits/internal/metrics"
	"visits/internal/repository"
	"visits/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, closer, err := opts.loadConfigAndLogger("serve")
			if err != nil {
				return err
			}
			defer closeQuietly(closer)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, &logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	repo, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer repo.Close()

	if db, ok := repo.(*database.DB); ok && cfg.Backup.Enabled {
		backup := database.NewBackupService(db, cfg.Backup, logger)
		go backup.Start(ctx)
	}

	bus := events.NewEventBus()
	subscribeAudit(bus, logger)

	svc, err := service.NewBookingService(repo, bus, cfg.Schedule, logger)
	if err != nil {
		return err
	}

	attempts, cleanup := initAttemptLimiter(ctx, cfg, logger)
	defer cleanup()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	httpServer := api.NewHTTPServer(cfg.API, svc, attempts, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Str("driver", cfg.Database.Driver).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
		return nil
	}

	timeout := time.Duration(cfg.API.HTTP.ShutdownTimeout) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("API server stopped")
	return nil
}

// initAttemptLimiter prefers Redis and falls back to process memory.
func initAttemptLimiter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.AttemptLimiter, func()) {
	memory := repository.NewMemoryLimiter()
	if cfg.Redis.Address == "" {
		return memory, func() {}
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, starting on in-memory limiter")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	limiter := repository.NewFailoverLimiter(repository.NewRedisLimiter(client), memory, logger)
	return limiter, func() { _ = repository.Close(client) }
}

// subscribeAudit logs every domain event at debug level.
func subscribeAudit(bus *events.EventBus, logger *zerolog.Logger) {
	audit := logger.With().Str("component", "events").Logger()
	bus.Subscribe(events.AllEvents, func(e *events.Event) error {
		audit.Debug().Str("type", e.Type).RawJSON("payload", e.Payload).Time("at", e.CreatedAt).Msg("event")
		return nil
	})
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
