package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"elevator-access-backend/config"
	"elevator-access-backend/internal/access"
	"elevator-access-backend/internal/api"
	"elevator-access-backend/internal/auth"
	"elevator-access-backend/internal/building"
	"elevator-access-backend/internal/db"
	"elevator-access-backend/internal/logging"
	"elevator-access-backend/internal/notification"
	"elevator-access-backend/internal/stats"
	"elevator-access-backend/internal/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("configuration loaded", zap.String("path", configPath))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gormDB, err := db.Init(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	logger.Info("database initialized", zap.String("driver", cfg.Database.Driver))

	appStore := store.NewGormStore(gormDB)
	aggregator := stats.NewAggregator(appStore, cfg.Stats.Location)

	var (
		authzOpts      []access.Option
		webpushOptions *webpush.Options
		workerPool     *notification.WorkerPool
	)
	if cfg.Push.Enabled() {
		webpushOptions = notification.Options(cfg.Push)
		workerPool = notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions, logger)
		workerPool.Start(ctx)
		authzOpts = append(authzOpts, access.WithNotifier(workerPool))
		logger.Info("push notifications enabled", zap.Int("workers", cfg.WorkerPool.Size))
	} else {
		logger.Warn("VAPID keys are not configured, push notifications disabled")
	}

	accounts := auth.NewAccounts(appStore, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), aggregator, cfg.Auth.BcryptCost, logger)
	handler := api.NewHandler(api.Deps{
		Store:      appStore,
		Accounts:   accounts,
		Authorizer: access.NewAuthorizer(appStore, logger, authzOpts...),
		Stats:      aggregator,
		Building:   building.NewManager(appStore, logger),
		WebPush:    webpushOptions,
		Config:     cfg,
		Logger:     logger,
	})

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler, accounts, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}

	cancel()
	if workerPool != nil {
		workerPool.Wait()
	}
	logger.Info("server gracefully stopped")
	return nil
}
