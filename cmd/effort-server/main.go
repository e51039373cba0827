// cmd/effort-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"reading-effort/internal/api"
	"reading-effort/internal/cache"
	"reading-effort/internal/common/camunda"
	"reading-effort/internal/common/config"
	"reading-effort/internal/common/database"
	"reading-effort/internal/common/logger"
	"reading-effort/internal/common/observability"
	"reading-effort/internal/common/validation"
	"reading-effort/internal/correlation"
	"reading-effort/internal/dataset"
	"reading-effort/internal/reports"
	"reading-effort/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting effort server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	obsOpts := []observability.Option{observability.WithLogger(log)}
	if cfg.Tracing.Enabled {
		obsOpts = append(obsOpts, observability.WithJaeger(cfg.Tracing.JaegerEndpoint))
	}
	obs := observability.New(cfg.Tracing.ServiceName, obsOpts...)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		obs.Shutdown(shutdownCtx)
	}()

	// --- Reference corpus ---
	var pg *database.PostgresClient
	if cfg.IsPostgresSource() {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = connectPostgres(ctx, cfg.Database.Postgres)
			return err
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	provider, err := dataset.NewFromConfig(cfg.Dataset, postgresDB(pg), log)
	if err != nil {
		zapLog.Fatal("dataset provider failed", zap.Error(err))
	}
	if cfg.Dataset.Preload {
		go func() {
			if _, err := provider.Dataset(ctx); err != nil {
				zapLog.Warn("dataset warm-up failed", zap.String("source", provider.Source()), zap.Error(err))
				return
			}
			zapLog.Info("dataset loaded", zap.String("source", provider.Source()))
		}()
	}

	serviceOpts := []correlation.Option{correlation.WithObservability(obs)}
	serverOpts := []api.Option{
		api.WithVersion(cfg.App.Version),
		api.WithReadinessCheck("dataset", func(context.Context) error {
			if !provider.Ready() {
				return fmt.Errorf("dataset %s not loaded", provider.Source())
			}
			return nil
		}),
	}

	// --- Result cache ---
	if cfg.Cache.Enabled {
		var rdb *redis.Client
		err = retryWithBackoff(func() error {
			rdb = database.NewRedis(cfg.Database.Redis)
			if err := database.PingRedis(ctx, rdb); err != nil {
				rdb.Close()
				return err
			}
			return nil
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("result cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			rc := cache.NewResultCache(rdb, config.GetDuration(cfg.Cache.TTL))
			serviceOpts = append(serviceOpts, correlation.WithCache(rc))
			serverOpts = append(serverOpts, api.WithReadinessCheck("redis", rc.Ping))
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Report publishers ---
	publisher := reports.NewMultiPublisher(log, reportPublishers(ctx, cfg, zapLog)...)
	if publisher.Len() > 0 {
		serviceOpts = append(serviceOpts, correlation.WithPublisher(publisher))
	}

	service := correlation.NewService(provider, log, serviceOpts...)

	reg := registry.MustDefault()
	validator, err := validation.NewValidator(reg)
	if err != nil {
		zapLog.Fatal("schema validator failed", zap.Error(err))
	}

	// --- Zeebe workers ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.CamundaWorker
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		workers = startWorkers(zeebe, cfg, reg, service, validator, log, zapLog)
		zapLog.Info("workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP API ---
	server := api.NewServer(cfg.Server, service, validator, log, serverOpts...)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.Start(); err != nil {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Effort server stopped")
}
