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

	"github.com/tillpoint/tillpoint/internal/app"
	"github.com/tillpoint/tillpoint/internal/auth"
	"github.com/tillpoint/tillpoint/internal/billing"
	"github.com/tillpoint/tillpoint/internal/billing/cart"
	"github.com/tillpoint/tillpoint/internal/catalog/categories"
	"github.com/tillpoint/tillpoint/internal/catalog/products"
	"github.com/tillpoint/tillpoint/internal/collections"
	"github.com/tillpoint/tillpoint/internal/customers"
	"github.com/tillpoint/tillpoint/internal/platform/cache"
	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/reports"
	"github.com/tillpoint/tillpoint/internal/shared"
	"github.com/tillpoint/tillpoint/internal/shops"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessions := shared.NewSessionManager(redisClient, "tillpoint_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	auditor := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	tasks := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := tasks.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	categoryRepo := categories.NewRepository(pool)
	categoryService := categories.NewService(categoryRepo, tasks, logger)

	productRepo := products.NewRepository(pool)
	productService := products.NewService(productRepo, categoryService, auditor, logger, cfg.AllowNegativeStock)

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customerRepo, logger)

	shopRepo := shops.NewRepository(pool)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, logger)

	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billing.ServiceConfig{
		Repo:               billingRepo,
		Carts:              cart.NewStore(redisClient, cfg.CartTTL),
		Products:           productRepo,
		Customers:          customerRepo,
		Idempotency:        idempotency,
		Reports:            reportsCache,
		Auditor:            auditor,
		Logger:             logger,
		AllowNegativeStock: cfg.AllowNegativeStock,
	})

	collectionsRepo := collections.NewRepository(pool)
	collectionsService := collections.NewService(collectionsRepo, billingService, auditor, logger)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, reportsCache)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessions,

		AuthHandler:        auth.NewHandler(logger, authService, sessions),
		ProductHandler:     products.NewHandler(logger, productService),
		CategoryHandler:    categories.NewHandler(logger, categoryService),
		CustomerHandler:    customers.NewHandler(logger, customerService),
		ShopHandler:        shops.NewHandler(logger, shopRepo),
		BillingHandler:     billing.NewHandler(logger, billingService),
		CollectionsHandler: collections.NewHandler(logger, collectionsService),
		ReportsHandler:     reports.NewHandler(logger, reportsService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
