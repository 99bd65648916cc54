// ABOUTME: Main entry point for the tierworks MCP server with stdio transport
// ABOUTME: Loads configuration, opens storage and serves the ranking tools
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/app"
	"github.com/harper/tierworks/internal/config"
	"github.com/harper/tierworks/internal/logging"
	"github.com/harper/tierworks/internal/mcp"
	"github.com/harper/tierworks/internal/metrics"
)

var version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: could not read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []app.Option
	if cfg.MetricsAddr != "" {
		opts = append(opts, app.WithMetrics(metrics.NewPrometheus(prometheus.DefaultRegisterer, "tierworks")))
		metrics.NewServer(cfg.MetricsAddr, prometheus.DefaultGatherer, logger.Named("metrics")).Start(ctx)
	}

	a, err := app.New(cfg, logger, opts...)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}

	serveErr := mcp.Serve(ctx, a, version)
	if err := a.Close(); err != nil {
		logger.Warn("error closing storage", zap.Error(err))
	}
	if serveErr != nil {
		logger.Fatal("server stopped", zap.Error(serveErr))
	}
}
