// Command orchestrator runs the build+merge pipeline as a long-lived
// daemon: it consumes CollectionReadyEvents from Kafka, runs a build+merge
// job per collection, tracks job status in PostgreSQL, and publishes an
// IndexReadyEvent (or IndexFailedEvent) back to Kafka.
//
// Usage:
//
//	go run ./cmd/orchestrator [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/indexbuild/pipeline/internal/orchestrator"
	"github.com/indexbuild/pipeline/pkg/config"
	"github.com/indexbuild/pipeline/pkg/health"
	"github.com/indexbuild/pipeline/pkg/kafka"
	"github.com/indexbuild/pipeline/pkg/logger"
	"github.com/indexbuild/pipeline/pkg/metrics"
	"github.com/indexbuild/pipeline/pkg/middleware"
	"github.com/indexbuild/pipeline/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting orchestrator service", "data_dir", cfg.Index.DataDir, "run_dir", cfg.Index.RunDir)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	jobs := orchestrator.NewJobStore(db)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := jobs.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure job schema", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port)
	}

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := db.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health/live", checker.LiveHandler())
	healthMux.HandleFunc("/health/ready", checker.ReadyHandler())
	var healthHandler http.Handler = healthMux
	healthHandler = middleware.Metrics(m)(healthHandler)
	healthHandler = middleware.Timeout(cfg.Server.ReadTimeout)(healthHandler)
	healthServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      healthHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		slog.Info("health server listening", "addr", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server error", "error", err)
		}
	}()

	publisher := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexReady)
	defer publisher.Close()

	engine := orchestrator.NewEngine(cfg.Index, m)
	consumer := orchestrator.NewConsumer(engine, jobs, publisher)

	kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CollectionReady, consumer.HandleMessage())
	defer kafkaConsumer.Close()

	slog.Info("orchestrator ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.CollectionReady,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := kafkaConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("health server shutdown error", "error", err)
	}
	cancel()

	if shutdownMetrics != nil {
		if err := shutdownMetrics(context.Background()); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	slog.Info("orchestrator service stopped")
}
