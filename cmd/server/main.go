package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/transhub/commit-webhooks/internal/api"
	"github.com/transhub/commit-webhooks/internal/config"
	"github.com/transhub/commit-webhooks/internal/db"
	"github.com/transhub/commit-webhooks/internal/dispatch"
	"github.com/transhub/commit-webhooks/internal/metrics"
	"github.com/transhub/commit-webhooks/internal/notifier"
	"github.com/transhub/commit-webhooks/internal/queue"
	"github.com/transhub/commit-webhooks/internal/ratelimiter"
	"github.com/transhub/commit-webhooks/internal/repository"
	"github.com/transhub/commit-webhooks/internal/service"
	"github.com/transhub/commit-webhooks/internal/web"
	"github.com/transhub/commit-webhooks/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	q := queue.New(cfg.QueueCapacity)
	repo := repository.NewPgCommitRepository(pool)
	urls := web.NewURLBuilder(cfg.WebBaseURL)
	wn := notifier.NewWebhookNotifier(repo, urls, cfg.StatusKeyPrefix, cfg.WebhookTimeout, logger)
	limiter := ratelimiter.New(cfg.RateLimit)
	dispatcher := dispatch.NewDispatcher(q, logger, m.DispatchHook())
	svc := service.NewCommitService(repo, dispatcher, logger)

	// ---- worker pool ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	onDelivered, onFailed := m.WorkerHooks()
	pool2 := worker.NewPool(cfg, q, repo, wn, limiter, logger, worker.MetricHooks{
		OnDelivered: onDelivered,
		OnFailed:    onFailed,
	})
	pool2.Start(workerCtx)

	cleanupW := worker.NewCleanupWorker(repo, cfg.CleanupInterval, cfg.DeliveryRetention, logger)
	go cleanupW.Run(workerCtx)

	// Keep the queue depth gauge in sync without instrumenting the queue itself.
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				m.QueueDepth.Set(float64(q.Depth()))
			}
		}
	}()

	// ---- HTTP server ----
	router := api.NewRouter(svc, q, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal all workers to stop pulling new jobs.
	cancelWorkers()

	// 3. Wait for in-flight deliveries to finish their current attempt.
	pool2.Wait()

	logger.Info("server stopped cleanly")
}
