package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qrstock/qrstock/internal/activity"
	"github.com/qrstock/qrstock/internal/app"
	"github.com/qrstock/qrstock/internal/catalog"
	"github.com/qrstock/qrstock/internal/observability"
	"github.com/qrstock/qrstock/internal/platform/cache"
	"github.com/qrstock/qrstock/internal/platform/db"
	"github.com/qrstock/qrstock/internal/reports"
	"github.com/qrstock/qrstock/internal/stock"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

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
		logger.Warn("redis unavailable, summary caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	recorder := activity.NewRecorder(pool)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, recorder, catalog.NewCodeGenerator(cfg.QRCodePrefix))

	reportsCache := reports.NewCache(redisClient, cfg.SummaryCacheTTL)
	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, reportsCache, logger, cfg.LowStockThreshold)

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo, catalogRepo, reportsCache, metrics)

	exporter := reports.NewExporter(catalogRepo, stockRepo)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		CatalogHandler:  catalog.NewHandler(logger, catalogService),
		StockHandler:    stock.NewHandler(logger, stockService, recorder),
		ActivityHandler: activity.NewHandler(logger, recorder),
		ReportsHandler:  reports.NewHandler(logger, reportsService, exporter),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
