package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/app"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/jobtrack/pkg/config"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
)

const statsInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      observability.LogFormat(cfg.LogFormat),
		Output:      os.Stdout,
		ServiceName: "jobtrack-worker",
		Environment: cfg.AppEnv,
	})
	logger.Info("starting jobtrack worker")

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		Exporter:    cfg.TracingExporter,
		ServiceName: "jobtrack-worker",
		Environment: cfg.AppEnv,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	conn, err := database.NewConnection(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		Key:        cfg.DatabaseKey,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("connected to database", "driver", conn.Driver())

	factory := app.NewRepositoryFactory(conn)
	if conn.Driver() == database.DriverSQLite {
		if err := factory.Migrate(ctx, logger); err != nil {
			return err
		}
	}
	outboxRepo, err := factory.OutboxRepository()
	if err != nil {
		return err
	}

	metrics := observability.NewPrometheusMetrics()

	var publisher eventbus.Publisher
	rabbit, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	switch {
	case err == nil:
		publisher = rabbit
	case cfg.IsProduction():
		return err
	default:
		logger.Warn("RabbitMQ not available, dispatching events in process", "error", err)
		registry := eventbus.NewConsumerRegistry(logger)
		registry.Register(eventbus.NewActivityConsumer(logger, metrics))
		publisher = eventbus.NewInProcessPublisher(registry, logger)
	}
	defer publisher.Close()

	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = cfg.OutboxPollInterval
	processorConfig.BatchSize = cfg.OutboxBatchSize
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	processorConfig.RetentionDays = cfg.OutboxRetentionDays
	processorConfig.CleanupInterval = cfg.OutboxCleanupInterval
	processor := outbox.NewProcessor(outboxRepo, publisher, processorConfig, logger, metrics)

	logger.Info("starting outbox processor",
		"poll_interval", processorConfig.PollInterval,
		"batch_size", processorConfig.BatchSize,
		"max_retries", processorConfig.MaxRetries,
	)
	if err := processor.Start(ctx); err != nil {
		return err
	}

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(processor, conn, rabbit, metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down worker")
			processor.Stop()
			return nil
		case <-ticker.C:
			stats := processor.GetStats()
			logger.Info("outbox stats",
				"running", stats.IsRunning,
				"published", stats.PublishedCount,
				"failed", stats.FailedCount,
				"dead", stats.DeadCount,
				"lag_seconds", stats.LagSeconds,
				"oldest_message_at", stats.OldestMessageAt,
				"last_processed_at", stats.LastProcessedAt,
				"last_error_at", stats.LastErrorAt,
				"last_error", stats.LastError,
			)
		}
	}
}

// healthMux serves liveness with processor stats, readiness against the
// database (and the broker when one is connected) and Prometheus metrics.
func healthMux(processor *outbox.Processor, conn database.Connection, rabbit *eventbus.RabbitMQPublisher, metrics *observability.PrometheusMetrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := processor.GetStats()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		err := conn.Ping(checkCtx)
		if err == nil && rabbit != nil {
			err = rabbit.Ping(checkCtx)
		}
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
