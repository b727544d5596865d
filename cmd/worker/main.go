package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"

	"github.com/baxromumarov/velocity/internal/ai"
	"github.com/baxromumarov/velocity/internal/config"
	"github.com/baxromumarov/velocity/internal/core"
	"github.com/baxromumarov/velocity/internal/queue"
	"github.com/baxromumarov/velocity/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, err := store.Open(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to connect to store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer users.Close(context.Background())

	aiClient, err := ai.NewClient(ctx, cfg.AI, logger)
	if err != nil {
		slog.Error("failed to init AI client", "error", err)
		os.Exit(1)
	}
	enrichment := core.NewEnrichmentService(users, aiClient, logger)

	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		slog.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	pool := queue.NewPool(conn, cfg.AMQP.Queue, cfg.Enrichment.Workers, func(ctx context.Context, job queue.EnrichmentJob) error {
		user, err := enrichment.Enrich(ctx, job.ClerkID)
		if err != nil {
			return err
		}
		logger.Info("insights stored", "job_id", job.ID, "clerk_id", user.ClerkID)
		return nil
	}, logger)
	pool.IsPermanent = core.IsPermanent

	slog.Info("starting worker", "queue", cfg.AMQP.Queue, "workers", cfg.Enrichment.Workers, "provider", aiClient.Name())
	if err := pool.Run(ctx); err != nil {
		slog.Error("worker pool stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
