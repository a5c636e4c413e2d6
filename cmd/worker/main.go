package main

import (
	"context"
	"log"
	"time"

	"coconet/internal/activities"
	"coconet/internal/auth"
	"coconet/internal/config"
	"coconet/internal/logging"
	"coconet/internal/services"
	"coconet/internal/storage"
	"coconet/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal("dial temporal", zap.Error(err))
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, closeStore, err := storage.Open(ctx, cfg.StorageDriver, cfg.StoragePath, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("open client storage", zap.Error(err))
	}
	defer closeStore()
	authCtx, err := auth.LoadContext(ctx, store)
	if err != nil {
		logger.Fatal("load auth context", zap.Error(err))
	}
	svc, err := services.New(cfg, authCtx)
	if err != nil {
		logger.Fatal("build services", zap.Error(err))
	}
	activities.Register(w, activities.New(svc.Users, store, logger.Named("activities")))

	logger.Info("coconet worker listening",
		zap.String("address", cfg.TemporalAddress),
		zap.String("queue", cfg.TemporalTaskQueue),
		zap.String("storage", cfg.StorageDriver))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
