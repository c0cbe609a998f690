package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grovli/grovli-backend/internal/cache"
	redisclient "github.com/grovli/grovli-backend/internal/clients/redis"
	chatrepo "github.com/grovli/grovli-backend/internal/data/repos/chat"
	mealsrepo "github.com/grovli/grovli-backend/internal/data/repos/meals"
	"github.com/grovli/grovli-backend/internal/db"
	httpx "github.com/grovli/grovli-backend/internal/http"
	"github.com/grovli/grovli-backend/internal/http/handlers"
	"github.com/grovli/grovli-backend/internal/mealgen"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
	"github.com/grovli/grovli-backend/internal/services"
	"github.com/grovli/grovli-backend/internal/temporalx"
	"github.com/grovli/grovli-backend/internal/utils"
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
	log.Info("Setting up repos from main...")
	mealRepo := mealsrepo.NewMealRepo(thePG, log)
	sessionRepo := chatrepo.NewSessionRepo(thePG, log)

	mealCache, err := cache.NewMealCache(hot, mealRepo, log)
	if err != nil {
		log.Error("Meal cache init failed", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up services from main...")
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

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Error("Temporal init failed", "error", err)
		os.Exit(1)
	}
	var starter services.WorkflowStarter
	if tc != nil {
		defer tc.Close()
		starter = tc
	}

	planService, err := services.NewPlanService(mealCache, mealRepo, locks, sessionRepo, gate, notifier, starter, log)
	if err != nil {
		log.Error("Plan service init failed", "error", err)
		os.Exit(1)
	}
	chatService, err := services.NewChatService(sessionRepo, gate, notifier, log)
	if err != nil {
		log.Error("Chat service init failed", "error", err)
		os.Exit(1)
	}

	// Router
	log.Info("Setting up router from main...")
	srv := httpx.NewServer(httpx.RouterConfig{
		MealPlanHandler: handlers.NewMealPlanHandler(planService),
		ChatHandler:     handlers.NewChatHandler(chatService),
		HealthHandler:   handlers.NewHealthHandler(),
	})

	port := utils.GetEnv("PORT", "8080", log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		return srv.Run(":" + port)
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
