package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// ActivityPruner removes activity entries older than the given age.
type ActivityPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ActivityCleanupJob prunes activity-log rows past the retention window.
// The stock ledger is never pruned.
type ActivityCleanupJob struct {
	Pruner    ActivityPruner
	Logger    *slog.Logger
	Retention time.Duration
}

// NewActivityCleanupJob initialises the cleanup handler.
func NewActivityCleanupJob(pruner ActivityPruner, logger *slog.Logger, retention time.Duration) *ActivityCleanupJob {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &ActivityCleanupJob{Pruner: pruner, Logger: logger, Retention: retention}
}

// Handle executes the cleanup.
func (j *ActivityCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pruner == nil {
		return errors.New("activity cleanup: handler not configured")
	}
	var payload ActivityCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := j.Retention
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}

	logger := j.logger().With(slog.Duration("retention", retention))
	removed, err := j.Pruner.Cleanup(ctx, retention)
	if err != nil {
		logger.Error("cleanup failed", slog.Any("error", err))
		return err
	}
	logger.Info("completed activity cleanup", slog.Int64("removed", removed))
	return nil
}

func (j *ActivityCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskActivityCleanup))
	}
	return slog.Default().With(slog.String("job", TaskActivityCleanup))
}
