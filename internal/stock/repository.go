package stock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qrstock/qrstock/internal/catalog"
	"github.com/qrstock/qrstock/internal/platform/db"
	"github.com/qrstock/qrstock/internal/shared"
)

// Repository persists the stock ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the engine. All
// three calls run on the same transaction; the row lock taken by
// GetProductForUpdate is held until the transaction commits or rolls back.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, code string) (catalog.Product, error)
	UpdateQuantity(ctx context.Context, productID, quantity int64) error
	InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const ledgerColumns = `id, product_id, actor_id, direction, delta, note, ref, created_at`

// ListForProduct returns the full mutation history of one product, newest first.
func (r *Repository) ListForProduct(ctx context.Context, productID int64, limit int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+ledgerColumns+` FROM stock_ledger WHERE product_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		productID, limit)
	if err != nil {
		return nil, fmt.Errorf("stock: list ledger for product: %w", err)
	}
	defer rows.Close()
	return scanLedgerEntries(rows)
}

// ListRecent returns recent ledger entries matching the filter, newest first.
func (r *Repository) ListRecent(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.ProductID != 0 {
		argCount++
		where += ` AND product_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.ProductID)
	}
	if filter.Direction != "" {
		argCount++
		where += ` AND direction = $` + strconv.Itoa(argCount)
		args = append(args, string(filter.Direction))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	argCount++
	args = append(args, limit)

	rows, err := r.pool.Query(ctx,
		`SELECT `+ledgerColumns+` FROM stock_ledger`+where+` ORDER BY created_at DESC, id DESC LIMIT $`+strconv.Itoa(argCount),
		args...)
	if err != nil {
		return nil, fmt.Errorf("stock: list ledger: %w", err)
	}
	defer rows.Close()
	return scanLedgerEntries(rows)
}

// Drift is one product whose quantity disagrees with its ledger history.
type Drift struct {
	ProductID int64
	Code      string
	Quantity  int64
	Expected  int64
}

// FindDrift compares each product's quantity against its initial quantity
// plus the sum of its ledger deltas. A healthy store returns no rows.
func (r *Repository) FindDrift(ctx context.Context) ([]Drift, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.code, p.quantity, p.initial_quantity + COALESCE(SUM(l.delta), 0) AS expected
FROM products p
LEFT JOIN stock_ledger l ON l.product_id = p.id
GROUP BY p.id, p.code, p.quantity, p.initial_quantity
HAVING p.quantity <> p.initial_quantity + COALESCE(SUM(l.delta), 0)`)
	if err != nil {
		return nil, fmt.Errorf("stock: find drift: %w", err)
	}
	defer rows.Close()

	var drifts []Drift
	for rows.Next() {
		var d Drift
		if err := rows.Scan(&d.ProductID, &d.Code, &d.Quantity, &d.Expected); err != nil {
			return nil, fmt.Errorf("stock: scan drift: %w", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, code string) (catalog.Product, error) {
	var (
		p          catalog.Product
		importDate *time.Time
		imageRef   *string
		createdBy  *int64
	)
	err := r.tx.QueryRow(ctx, `SELECT id, code, name, category, asset_code, import_date, quantity, unit, image_ref, created_by, created_at, updated_at
FROM products WHERE code = $1 FOR UPDATE`, code).
		Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.AssetCode, &importDate,
			&p.Quantity, &p.Unit, &imageRef, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, fmt.Errorf("stock: product %q: %w", code, shared.ErrNotFound)
		}
		return catalog.Product{}, fmt.Errorf("stock: lock product: %w", err)
	}
	if importDate != nil {
		p.ImportDate = *importDate
	}
	if imageRef != nil {
		p.ImageRef = *imageRef
	}
	if createdBy != nil {
		p.CreatedBy = *createdBy
	}
	return p, nil
}

func (r *txRepository) UpdateQuantity(ctx context.Context, productID, quantity int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET quantity = $1, updated_at = NOW() WHERE id = $2`, quantity, productID)
	if err != nil {
		return fmt.Errorf("stock: update quantity: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("stock: update quantity touched %d rows", tag.RowsAffected())
	}
	return nil
}

func (r *txRepository) InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_ledger (product_id, actor_id, direction, delta, note, ref, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING id, created_at`,
		entry.ProductID, entry.ActorID, string(entry.Direction), entry.Delta,
		nullString(entry.Note), nullString(entry.Ref)).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("stock: insert ledger entry: %w", err)
	}
	return entry, nil
}

func scanLedgerEntries(rows pgx.Rows) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	for rows.Next() {
		var (
			entry LedgerEntry
			note  *string
			ref   *string
		)
		if err := rows.Scan(&entry.ID, &entry.ProductID, &entry.ActorID, &entry.Direction,
			&entry.Delta, &note, &ref, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("stock: scan ledger entry: %w", err)
		}
		if note != nil {
			entry.Note = *note
		}
		if ref != nil {
			entry.Ref = *ref
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
