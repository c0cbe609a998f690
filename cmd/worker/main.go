package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/grovli/grovli-backend/internal/cache"
	"github.com/grovli/grovli-backend/internal/clients/gcp"
	"github.com/grovli/grovli-backend/internal/clients/openai"
	redisclient "github.com/grovli/grovli-backend/internal/clients/redis"
	chatrepo "github.com/grovli/grovli-backend/internal/data/repos/chat"
	mealsrepo "github.com/grovli/grovli-backend/internal/data/repos/meals"
	"github.com/grovli/grovli-backend/internal/db"
	"github.com/grovli/grovli-backend/internal/mealgen"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
	"github.com/grovli/grovli-backend/internal/temporalx"
	"github.com/grovli/grovli-backend/internal/temporalx/plangen"
	"github.com/grovli/grovli-backend/internal/temporalx/temporalworker"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis
	rdb, err := redisclient.NewClient(log)
	if err != nil {
		log.Error("Redis init failed", "error", err)
		os.Exit(1)
	}
	hot, err := cache.NewRedisHotStore(rdb, log)
	if err != nil {
		log.Error("Hot store init failed", "error", err)
		os.Exit(1)
	}
	locks, err := cache.NewLockService(hot, log)
	if err != nil {
		log.Error("Lock service init failed", "error", err)
		os.Exit(1)
	}

	// Repos
	mealRepo := mealsrepo.NewMealRepo(thePG, log)
	sessionRepo := chatrepo.NewSessionRepo(thePG, log)

	mealCache, err := cache.NewMealCache(hot, mealRepo, log)
	if err != nil {
		log.Error("Meal cache init failed", "error", err)
		os.Exit(1)
	}

	// Clients
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Error("Could not init bucket service", "error", err)
		os.Exit(1)
	}

	// Generation services
	generator, err := mealgen.NewGenerator(aiClient, mealCache, mealRepo, log)
	if err != nil {
		log.Error("Generator init failed", "error", err)
		os.Exit(1)
	}
	assets, err := mealgen.NewAssetService(aiClient, bucketService, mealCache, mealRepo, log)
	if err != nil {
		log.Error("Asset service init failed", "error", err)
		os.Exit(1)
	}
	gate, err := mealgen.NewReadinessGate(mealRepo, log)
	if err != nil {
		log.Error("Readiness gate init failed", "error", err)
		os.Exit(1)
	}
	notifier, err := mealgen.NewNotifier(hot, locks, sessionRepo, log)
	if err != nil {
		log.Error("Notifier init failed", "error", err)
		os.Exit(1)
	}

	// Temporal
	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Error("Temporal init failed", "error", err)
		os.Exit(1)
	}
	if tc == nil {
		log.Error("TEMPORAL_ADDRESS is required for the worker")
		os.Exit(1)
	}
	defer tc.Close()

	acts := &plangen.Activities{
		Log:       log,
		Generator: generator,
		Assets:    assets,
		Ready:     gate,
		Notifier:  notifier,
		Locks:     locks,
	}
	runner, err := temporalworker.NewRunner(log, tc, acts)
	if err != nil {
		log.Error("Worker init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Start(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("Worker exited", "error", err)
		os.Exit(1)
	}
	log.Info("Worker stopped")
}
