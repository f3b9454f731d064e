package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/jobtrack/adapter/cli"
	"github.com/felixgeelhaar/jobtrack/pkg/config"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      observability.LogFormat(cfg.LogFormat),
		Output:      os.Stderr,
		ServiceName: "jobtrack",
		Environment: cfg.AppEnv,
	})
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		Exporter:    cfg.TracingExporter,
		ServiceName: "jobtrack",
		Environment: cfg.AppEnv,
		Output:      os.Stderr,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	cli.SetLogger(logger)
	cli.SetConfig(cfg)

	code := 0
	if err := cli.Execute(ctx); err != nil {
		code = 1
	}
	if err := shutdownTracing(context.Background()); err != nil {
		logger.Warn("failed to flush traces", "error", err)
	}
	os.Exit(code)
}
