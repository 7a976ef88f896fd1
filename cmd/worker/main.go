// Command worker starts the preprocessing job worker.
//
// It consumes job requests from Kafka, runs the preprocessing engine on the
// requested catalogs, writes the result container, and publishes a completion
// event. Job status is tracked in Redis and served over HTTP at
// GET /api/v1/jobs/{id}.
//
// Usage:
//
//	go run ./cmd/worker [-config configs/development.yaml]
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

	"github.com/corrkit/corrkit/internal/preprocess"
	"github.com/corrkit/corrkit/internal/worker"
	"github.com/corrkit/corrkit/pkg/config"
	"github.com/corrkit/corrkit/pkg/health"
	"github.com/corrkit/corrkit/pkg/kafka"
	"github.com/corrkit/corrkit/pkg/logger"
	"github.com/corrkit/corrkit/pkg/metrics"
	"github.com/corrkit/corrkit/pkg/middleware"
	"github.com/corrkit/corrkit/pkg/postgres"
	"github.com/corrkit/corrkit/pkg/redis"
)

// main boots the worker: metrics server, Redis job store, Kafka consumer and
// completion producer, optional Postgres client for database-backed catalogs,
// and the HTTP status API. Graceful shutdown is triggered by SIGINT/SIGTERM.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting preprocessing worker", "port", cfg.Worker.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	store := worker.NewStore(redisClient, cfg.Worker.JobTTL)

	var pg *postgres.Client
	if cfg.Catalogs.Random.Source == "postgres" || cfg.Catalogs.Observed.Source == "postgres" {
		pg, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Completions)
	defer producer.Close()

	engine := preprocess.New(m)
	w := worker.New(cfg, engine, store, producer, pg, m)

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Jobs, w.Handle())
	defer consumer.Close()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("consumer error", "error", err)
		}
	}()
	slog.Info("job consumer started", "topic", cfg.Kafka.Topics.Jobs)

	// HTTP status API.
	jobHandler := worker.NewHandler(store)

	checker := health.NewChecker()
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
	})
	if pg != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pg.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/jobs/{id}", jobHandler.Status)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Worker.Port),
		Handler: chain,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("worker listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("worker stopped")
}
