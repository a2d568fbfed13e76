package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumecheck/internal/analysis"
	"resumecheck/internal/api"
	"resumecheck/internal/auth"
	"resumecheck/internal/config"
	"resumecheck/internal/convert"
	"resumecheck/internal/database"
	"resumecheck/internal/docstore"
	"resumecheck/internal/kvcache"
	"resumecheck/internal/persist"
	"resumecheck/internal/pipeline"
	"resumecheck/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready")

	if err := db.AutoMigrate(&database.ResumeRecord{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	cache := kvcache.NewCache(redisClient)
	records := persist.NewCoordinator(docstore.NewStore(db), cache, logger)

	analyzer, err := analysis.NewClient(context.Background(), cfg.Analysis, storageClient)
	if err != nil {
		log.Fatalf("init analysis client: %v", err)
	}

	runner := pipeline.NewRunner(
		storageClient,
		convert.NewFitzConverter(0),
		analyzer,
		records,
		logger,
	)

	tokens, err := auth.NewTokenService(cfg.Auth.TokenSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("init token service: %v", err)
	}

	provider := auth.NewHTTPProvider(cfg.Auth, cache, logger)
	manager := auth.NewManager(provider, logger)
	defer manager.Close()

	// Consumes any pending redirect result and wires the live session
	// listener. Invoked exactly once, before serving traffic.
	manager.RestoreSession(context.Background())

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	router := api.NewRouter(logger)
	api.RegisterRoutes(
		router,
		manager,
		tokens,
		runner,
		records,
		storageClient,
		asynqClient,
		redisClient,
		logger,
		cfg.Clamd.Addr,
		cfg.API.AllowedOrigins,
	)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
