package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RecentProduct is the thin projection shown on the dashboard.
type RecentProduct struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary aggregates the dashboard counters. It reflects committed state
// only; in-flight mutations are invisible to these queries.
type Summary struct {
	TotalProducts  int             `json:"total_products"`
	LowStockCount  int             `json:"low_stock_count"`
	RecentProducts []RecentProduct `json:"recent_products"`
}

// Repository runs the read-only aggregation queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Summary computes the dashboard counters in one round trip per aggregate.
func (r *Repository) Summary(ctx context.Context, lowStockThreshold int, recentLimit int) (Summary, error) {
	var summary Summary
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE quantity <= $1) FROM products`,
		lowStockThreshold).Scan(&summary.TotalProducts, &summary.LowStockCount)
	if err != nil {
		return Summary{}, fmt.Errorf("reports: summary counts: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, quantity, unit, created_at FROM products ORDER BY created_at DESC, id DESC LIMIT $1`,
		recentLimit)
	if err != nil {
		return Summary{}, fmt.Errorf("reports: recent products: %w", err)
	}
	defer rows.Close()

	summary.RecentProducts = []RecentProduct{}
	for rows.Next() {
		var p RecentProduct
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Quantity, &p.Unit, &p.CreatedAt); err != nil {
			return Summary{}, fmt.Errorf("reports: scan recent product: %w", err)
		}
		summary.RecentProducts = append(summary.RecentProducts, p)
	}
	return summary, rows.Err()
}
