package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tillpoint/tillpoint/internal/app"
	"github.com/tillpoint/tillpoint/internal/catalog/categories"
	"github.com/tillpoint/tillpoint/internal/catalog/products"
	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
	"github.com/tillpoint/tillpoint/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:    asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:       logger,
		CategorySync: jobs.NewCategorySyncHandler(categories.NewRepository(pool), products.NewRepository(pool), logger),
		LedgerAudit:  jobs.NewLedgerAuditHandler(pool, logger),
		Idempotency:  shared.NewIdempotencyStore(pool),
		Cron: []jobs.CronRegistration{
			{Spec: "30 2 * * *", Task: jobs.NewLedgerAuditTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * 0", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
