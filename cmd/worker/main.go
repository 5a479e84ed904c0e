package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/amsilks/amsilks-erp/internal/alerts"
	"github.com/amsilks/amsilks-erp/internal/app"
	"github.com/amsilks/amsilks-erp/internal/documents"
	jobmetrics "github.com/amsilks/amsilks-erp/internal/jobs"
	"github.com/amsilks/amsilks-erp/internal/ledger"
	"github.com/amsilks/amsilks-erp/internal/observability"
	"github.com/amsilks/amsilks-erp/internal/platform/db"
	"github.com/amsilks/amsilks-erp/internal/shared"
	"github.com/amsilks/amsilks-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		return 1
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	ledgerService := ledger.NewService(ledger.NewRepository(pool), shared.NewAuditLogger(pool), logger)
	alertService := alerts.NewService(ledgerService, documents.NewMoney(cfg.Currency), logger)

	alertsJob := jobs.NewAlertsScanJob(alertService, logger, jobMetrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(pool, shared.NewIdempotencyStore(), logger, jobMetrics)

	alertsTask, err := jobs.NewAlertsScanTask("cron")
	if err != nil {
		logger.Error("build alerts task", slog.Any("error", err))
		return 1
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(0)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		return 1
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAlertsScan, Handler: alertsJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.AlertsCron, Task: alertsTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.CleanupCron, Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		return 1
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		return 1
	}
	return 0
}
