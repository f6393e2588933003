package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/adapter/httpserver"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/adapter/inference"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/adapter/postgres"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/adapter/redis"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/app"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/modelmanager"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/platform/config"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/platform/logging"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to create Redis client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	return client
}

func setupModels(cfg *config.Config, clock clockwork.Clock) *modelmanager.Manager {
	manager := modelmanager.New(clock)
	opts := modelmanager.SlotOptions{MaxConcurrent: cfg.ModelMaxConcurrent}

	manager.Register(modelmanager.ClassTranscription, func(ctx context.Context) (any, error) {
		return inference.NewTranscriber(cfg.TranscriptionURL, cfg.InferenceTimeout), nil
	}, opts)
	manager.Register(modelmanager.ClassTranslation, func(ctx context.Context) (any, error) {
		return inference.NewTranslator(cfg.TranslationURL, cfg.InferenceTimeout), nil
	}, opts)
	manager.Register(modelmanager.ClassNLP, func(ctx context.Context) (any, error) {
		return inference.NewLemmatizer(cfg.TaggingURL, cfg.InferenceTimeout), nil
	}, opts)

	return manager
}

func runGracefulShutdown(cfg *config.Config, srv *httpserver.Server, manager *modelmanager.Manager, appSvc *app.Service) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		appSvc.Stop()

		unloadCtx, cancel := context.WithTimeout(context.Background(), cfg.ModelUnloadTimeout)
		defer cancel()
		if err := manager.Shutdown(unloadCtx); err != nil {
			slog.Error("Model manager shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	translationCache := redis.NewTranslationCache(redisClient.Underlying(), cfg.TranslationCacheTTL)
	stopEviction := translationCache.StartEvictionTimer(1 * time.Minute)

	progressRepo := postgres.NewProgressRepo(pool)

	manager := setupModels(cfg, clock)
	stopSweeper := manager.StartIdleSweeper(cfg.ModelSweepInterval, cfg.ModelIdleTimeout)

	appSvc := app.NewService(progressRepo, manager, translationCache, clock, stopEviction, stopSweeper)

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: redisClient.Ping},
	}
	srv := httpserver.NewServer(cfg, appSvc, healthChecks)

	done := runGracefulShutdown(cfg, srv, manager, appSvc)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
