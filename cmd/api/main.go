package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartdine/smartdine-backend/api/routes"
	"github.com/smartdine/smartdine-backend/internal/addresses"
	"github.com/smartdine/smartdine-backend/internal/cart"
	"github.com/smartdine/smartdine-backend/internal/dishes"
	"github.com/smartdine/smartdine-backend/internal/events"
	"github.com/smartdine/smartdine-backend/internal/orders"
	"github.com/smartdine/smartdine-backend/internal/preferences"
	"github.com/smartdine/smartdine-backend/internal/recommend"
	"github.com/smartdine/smartdine-backend/internal/reviews"
	"github.com/smartdine/smartdine-backend/pkg/config"
	"github.com/smartdine/smartdine-backend/pkg/db"
	"github.com/smartdine/smartdine-backend/pkg/genai"
	"github.com/smartdine/smartdine-backend/pkg/logger"
	"github.com/smartdine/smartdine-backend/pkg/migrate"
	"github.com/smartdine/smartdine-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// the candidate cache is optional; without redis recall always hits the
	// database
	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	generator, err := genai.New(cfg.GenAI)
	if err != nil {
		logg.Error(context.Background(), "failed to create generator client", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	dishRepo := dishes.NewRepository(conn)
	addressRepo := addresses.NewRepository(conn)
	recorder := events.NewRecorder()

	dishService := dishes.NewService(dishRepo)
	cartService := cart.NewService(dbClient, cart.NewRepository(conn), dishRepo)
	orderService := orders.NewService(dbClient, orders.NewRepository(conn), dishRepo, addressRepo, recorder)
	reviewService := reviews.NewService(dbClient, reviews.NewRepository(conn), orders.NewRepository(conn), dishRepo, recorder)
	preferenceService := preferences.NewService(dbClient, conn, recorder)

	var cache recommend.CandidateCache
	if redisClient != nil {
		cache = redisClient
	}
	recommendService := recommend.NewService(
		recommend.NewRepository(conn),
		dishRepo,
		preferenceService,
		generator,
		cache,
		logg,
		cfg.Recommend,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			dishService,
			cartService,
			orderService,
			reviewService,
			preferenceService,
			recommendService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
