package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tracker/internal/cache"
	"tracker/internal/cli"
	apphttp "tracker/internal/http"
	applog "tracker/internal/log"
	"tracker/internal/metrics"
	"tracker/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.EventPublisher
	if client := cli.ConnectAMQP(logger, cfg); client != nil {
		defer client.Close()
		publisher = client
	}

	categories := services.NewCategoryService(repo, cfg.CategoryCacheTTL)
	svc := apphttp.Services{
		Transactions: services.NewTransactionService(repo, categories, publisher, cfg.DefaultCurrency),
		Analytics:    services.NewAnalyticsService(repo, categories, cfg.NotificationMaxDays),
		Categories:   categories,
		Settings:     services.NewSettingsService(repo),
	}

	caches := cache.NewManager()
	if c := categories.Cache(); c != nil {
		caches.Register(c)
	}
	caches.OnSweep(func(n int) { metrics.CacheEntriesExpired.Add(float64(n)) })
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MetricsEnabled:     cfg.MetricsEnabled,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
		Ready:              repo,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting tracker API", "port", cfg.Port, "db", cfg.SQLiteDBPath, "amqp", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
