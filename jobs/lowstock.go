package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LowStockScanJob reports every product at or below the low-stock threshold
// so operators can restock before a checkout gets refused.
type LowStockScanJob struct {
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	Threshold int
}

// NewLowStockScanJob initialises the low-stock scan handler.
func NewLowStockScanJob(pool *pgxpool.Pool, logger *slog.Logger, threshold int) *LowStockScanJob {
	if threshold <= 0 {
		threshold = 5
	}
	return &LowStockScanJob{Pool: pool, Logger: logger, Threshold: threshold}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("low-stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	threshold := payload.Threshold
	if threshold <= 0 {
		threshold = j.Threshold
	}

	start := time.Now().UTC()
	logger := j.logger().With(slog.Int("threshold", threshold))
	logger.Info("starting low-stock scan")

	rows, err := j.Pool.Query(ctx, `SELECT id, code, name, quantity FROM products WHERE quantity <= $1 ORDER BY quantity ASC, id ASC`, threshold)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			id       int64
			code     string
			name     string
			quantity int64
		)
		if err := rows.Scan(&id, &code, &name, &quantity); err != nil {
			logger.Error("scan row", slog.Any("error", err))
			return err
		}
		count++
		logger.Warn("low stock",
			slog.Int64("product_id", id),
			slog.String("code", code),
			slog.String("name", name),
			slog.Int64("quantity", quantity),
		)
	}
	if err := rows.Err(); err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed low-stock scan",
		slog.Int("products", count),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}
