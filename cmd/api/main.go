package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"coconet/internal/api"
	"coconet/internal/auth"
	"coconet/internal/config"
	"coconet/internal/listing"
	"coconet/internal/logging"
	"coconet/internal/services"
	"coconet/internal/storage"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	store, closeStore, err := storage.Open(openCtx, cfg.StorageDriver, cfg.StoragePath, cfg.PostgresURL)
	cancel()
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

	ordering, err := listing.ParseOrdering(cfg.Ordering)
	if err != nil {
		logger.Fatal("invalid fetch ordering", zap.Error(err))
	}
	opts := []listing.Option{
		listing.WithLogger(logger.Named("listing")),
		listing.WithOrdering(ordering),
		listing.WithAuth(authCtx),
	}
	if cfg.PaginationRefetch {
		opts = append(opts, listing.WithPaginationRefetch(cfg.PageSize))
	}
	session := listing.NewController(svc.Articles, opts...)
	defer session.Close()
	session.Mount()

	var tc client.Client
	if c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress}); err != nil {
		logger.Warn("temporal unavailable, member registration disabled", zap.String("address", cfg.TemporalAddress), zap.Error(err))
	} else {
		tc = c
		defer c.Close()
	}

	srv := api.NewServer(api.Deps{
		Config:   cfg,
		Session:  session,
		Articles: svc.Articles,
		Users:    svc.Users,
		Hydrator: auth.NewHydrator(store, authCtx, &auth.ScrollState{}, logger.Named("auth")),
		Auth:     authCtx,
		Temporal: tc,
		Log:      logger,
	})
	httpSrv := &http.Server{Addr: cfg.APIAddr, Handler: srv.Routes(), ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("coconet api listening",
			zap.String("addr", cfg.APIAddr),
			zap.String("api_base", cfg.APIBase),
			zap.String("storage", cfg.StorageDriver),
			zap.String("ordering", cfg.Ordering),
			zap.Bool("pagination_refetch", cfg.PaginationRefetch))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("api server stopped", zap.Error(err))
	}
}
