package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "reports:version"

// Cache wraps Redis based caching of the dashboard summary with a version
// counter. Mutations bump the version, which orphans every older key; the
// TTL sweeps the orphans out.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetSummary loads a cached summary for the current version. A miss returns
// ok=false with no error.
func (c *Cache) GetSummary(ctx context.Context) (Summary, bool, error) {
	if c == nil || c.client == nil {
		return Summary{}, false, nil
	}
	key, err := c.summaryKey(ctx)
	if err != nil {
		return Summary{}, false, err
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, fmt.Errorf("reports: cache get: %w", err)
	}
	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return Summary{}, false, fmt.Errorf("reports: cache decode: %w", err)
	}
	return summary, true, nil
}

// SetSummary stores the summary under the current version.
func (c *Cache) SetSummary(ctx context.Context, summary Summary) error {
	if c == nil || c.client == nil {
		return nil
	}
	key, err := c.summaryKey(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("reports: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("reports: cache set: %w", err)
	}
	return nil
}

// InvalidateSummary bumps the version so the next read recomputes.
func (c *Cache) InvalidateSummary(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, cacheVersionKey).Err(); err != nil {
		return fmt.Errorf("reports: cache bump: %w", err)
	}
	return nil
}

func (c *Cache) summaryKey(ctx context.Context) (string, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return "", fmt.Errorf("reports: cache init version: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("reports: cache version: %w", err)
	}
	return fmt.Sprintf("reports:summary:v%d", ver), nil
}
