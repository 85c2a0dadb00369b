package reports

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Summary(ctx context.Context, lowStockThreshold int, recentLimit int) (Summary, error)
}

// recentProductCount is how many newly created products the dashboard shows.
const recentProductCount = 5

// Service serves the dashboard summary, caching computed results until a
// mutation invalidates them or the TTL expires.
type Service struct {
	repo      RepositoryPort
	cache     *Cache
	logger    *slog.Logger
	threshold int
	rebuild   singleflight.Group
}

// NewService builds Service. A nil cache disables caching.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger, lowStockThreshold int) *Service {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 5
	}
	return &Service{repo: repo, cache: cache, logger: logger, threshold: lowStockThreshold}
}

// GetSummary returns the dashboard summary, served from cache when fresh.
// Cache failures degrade to a direct query rather than failing the request.
func (s *Service) GetSummary(ctx context.Context) (Summary, error) {
	if summary, ok, err := s.cache.GetSummary(ctx); err == nil && ok {
		return summary, nil
	} else if err != nil && s.logger != nil {
		s.logger.Warn("summary cache read", slog.Any("error", err))
	}

	// Concurrent misses collapse into a single rebuild; everyone shares
	// the same result.
	result := <-s.rebuild.DoChan("summary", func() (any, error) {
		summary, err := s.repo.Summary(ctx, s.threshold, recentProductCount)
		if err != nil {
			return Summary{}, err
		}
		if err := s.cache.SetSummary(ctx, summary); err != nil && s.logger != nil {
			s.logger.Warn("summary cache write", slog.Any("error", err))
		}
		return summary, nil
	})
	if result.Err != nil {
		return Summary{}, result.Err
	}
	return result.Val.(Summary), nil
}
