package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	_ "github.com/qrstock/qrstock/testing"
)

type countingRepo struct {
	calls   int
	summary Summary
}

func (r *countingRepo) Summary(ctx context.Context, lowStockThreshold, recentLimit int) (Summary, error) {
	r.calls++
	return r.summary, nil
}

func newRedisCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestGetSummaryCachesResult(t *testing.T) {
	repo := &countingRepo{summary: Summary{TotalProducts: 12, LowStockCount: 2}}
	cache := newRedisCache(t)
	svc := NewService(repo, cache, nil, 5)
	ctx := context.Background()

	first, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, 12, first.TotalProducts)
	require.Equal(t, 1, repo.calls)

	// Second read is a cache hit; the repository is not consulted.
	second, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls)
}

func TestGetSummaryAfterInvalidation(t *testing.T) {
	repo := &countingRepo{summary: Summary{TotalProducts: 3}}
	cache := newRedisCache(t)
	svc := NewService(repo, cache, nil, 5)
	ctx := context.Background()

	_, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)

	// A mutation bumps the version; the next read recomputes.
	repo.summary.TotalProducts = 4
	require.NoError(t, cache.InvalidateSummary(ctx))

	refreshed, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, refreshed.TotalProducts)
	require.Equal(t, 2, repo.calls)
}

func TestGetSummaryWithoutCache(t *testing.T) {
	repo := &countingRepo{summary: Summary{TotalProducts: 1}}
	svc := NewService(repo, nil, nil, 5)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := svc.GetSummary(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, got.TotalProducts)
	}
	// No cache means every read hits the repository.
	require.Equal(t, 2, repo.calls)
}
