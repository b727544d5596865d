package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"

	"github.com/baxromumarov/velocity/internal/ai"
	"github.com/baxromumarov/velocity/internal/api"
	"github.com/baxromumarov/velocity/internal/auth"
	"github.com/baxromumarov/velocity/internal/config"
	"github.com/baxromumarov/velocity/internal/core"
	"github.com/baxromumarov/velocity/internal/queue"
	"github.com/baxromumarov/velocity/internal/roadmap"
	"github.com/baxromumarov/velocity/internal/store"
	"github.com/baxromumarov/velocity/internal/trends"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireAuth(); err != nil {
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
	slog.Info("AI provider selected", "provider", aiClient.Name())

	var publisher core.JobPublisher
	if cfg.Enrichment.Mode == config.EnrichQueue {
		conn, err := amqp.Dial(cfg.AMQP.URL)
		if err != nil {
			slog.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		pub, err := queue.NewPublisher(conn, cfg.AMQP.Queue)
		if err != nil {
			slog.Error("failed to open publisher", "queue", cfg.AMQP.Queue, "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		publisher = pub
	}

	enrichment := core.NewEnrichmentService(users, aiClient, logger)
	enricher, err := core.NewEnricher(cfg.Enrichment.Mode, enrichment, users, publisher)
	if err != nil {
		slog.Error("failed to init enrichment", "error", err)
		os.Exit(1)
	}

	var cache trends.Cache
	if cfg.Trends.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Trends.RedisAddr,
			Password: cfg.Trends.RedisPassword,
			DB:       cfg.Trends.RedisDB,
		})
		defer rdb.Close()
		cache = trends.NewRedisCache(rdb)
	}
	marketTrends := trends.NewService(cfg.Trends.URL, cfg.Trends.CacheTTL, cache, logger)
	refresher := core.NewSchedulerService(marketTrends, cfg.Trends.RefreshInterval, logger)
	refreshDone := refresher.Start(ctx)

	roles, err := roadmap.LoadRoles(cfg.Roadmap.RolesFile)
	if err != nil {
		slog.Error("failed to load roles", "error", err)
		os.Exit(1)
	}
	var source roadmap.Source
	if cfg.Roadmap.S3Bucket != "" {
		source, err = roadmap.NewS3Source(ctx, cfg.Roadmap)
		if err != nil {
			slog.Error("failed to init roadmap bucket", "bucket", cfg.Roadmap.S3Bucket, "error", err)
			os.Exit(1)
		}
	} else {
		source = roadmap.NewFSSource(os.DirFS(cfg.Roadmap.RepoPath))
	}

	srv := api.NewServer(api.Deps{
		Profiles:       core.NewProfileService(users, enricher, logger),
		Dashboard:      core.NewDashboardService(users),
		Trends:         marketTrends,
		Roadmaps:       roadmap.NewService(source, roles),
		Verifier:       auth.NewClerkVerifier(cfg.Auth.ClerkSecretKey),
		AllowedOrigins: cfg.AllowedOrigins,
		StaticDir:      cfg.StaticDir,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "store", cfg.Store.Driver, "enrichment", enricher.Mode())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	<-refreshDone
	slog.Info("server stopped")
}
