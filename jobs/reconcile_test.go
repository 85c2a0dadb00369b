package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/qrstock/qrstock/internal/stock"
	_ "github.com/qrstock/qrstock/testing"
)

type staticDrift struct {
	drifts []stock.Drift
	calls  int
}

func (s *staticDrift) FindDrift(ctx context.Context) ([]stock.Drift, error) {
	s.calls++
	return s.drifts, nil
}

func TestLedgerReconcileHandle(t *testing.T) {
	finder := &staticDrift{drifts: []stock.Drift{
		{ProductID: 1, Code: "QR-20250901-000001", Quantity: 7, Expected: 9},
	}}
	job := NewLedgerReconcileJob(finder, nil)

	task, err := NewLedgerReconcileTask(time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, finder.calls)
}

func TestLedgerReconcileMalformedPayload(t *testing.T) {
	job := NewLedgerReconcileJob(&staticDrift{}, nil)

	task := asynq.NewTask(TaskLedgerReconcile, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
