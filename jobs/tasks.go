package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskLedgerReconcile checks product quantities against ledger history.
	TaskLedgerReconcile = "ledger:reconcile"
	// TaskLowStockScan reports products at or below the low-stock threshold.
	TaskLowStockScan = "stock:lowstock_scan"
	// TaskActivityCleanup prunes expired activity-log rows.
	TaskActivityCleanup = "activity:cleanup"
)

// LedgerReconcilePayload carries scheduling metadata.
type LedgerReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLedgerReconcileTask constructs the nightly reconciliation task.
func NewLedgerReconcileTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LedgerReconcilePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, body, asynq.Queue(QueueDefault)), nil
}

// LowStockScanPayload configures the scan threshold. Zero means the worker
// default applies.
type LowStockScanPayload struct {
	Threshold int `json:"threshold"`
}

// NewLowStockScanTask constructs a low-stock scan task.
func NewLowStockScanTask(threshold int) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// ActivityCleanupPayload overrides the retention window. Zero means the
// worker default applies.
type ActivityCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewActivityCleanupTask constructs an activity retention cleanup task.
func NewActivityCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(ActivityCleanupPayload{RetentionHours: int(retention.Hours())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityCleanup, body, asynq.Queue(QueueDefault)), nil
}
