package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qrstock/qrstock/internal/shared"
)

const productColumns = `id, code, name, category, asset_code, import_date, quantity, unit, image_ref, created_by, created_at, updated_at`

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches one product by surrogate id.
func (r *Repository) GetByID(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetByCode fetches one product by its unique code.
func (r *Repository) GetByCode(ctx context.Context, code string) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1`, code)
	return scanProduct(row)
}

// List returns products matching the filter, newest first, with the total row
// count for pagination.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Search != "" {
		argCount++
		n := strconv.Itoa(argCount)
		where += ` AND (name ILIKE $` + n + ` OR category ILIKE $` + n + ` OR code ILIKE $` + n + ` OR asset_code ILIKE $` + n + `)`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		argCount++
		where += ` AND category = $` + strconv.Itoa(argCount)
		args = append(args, filter.Category)
	}
	if !filter.ImportDateFrom.IsZero() {
		argCount++
		where += ` AND import_date >= $` + strconv.Itoa(argCount)
		args = append(args, filter.ImportDateFrom)
	}
	if !filter.ImportDateTo.IsZero() {
		argCount++
		where += ` AND import_date <= $` + strconv.Itoa(argCount)
		args = append(args, filter.ImportDateTo)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.PerPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filter.PerPage)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filter.Page - 1) * filter.PerPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// Create inserts a new product. A duplicate code surfaces as ErrConflict via
// the unique constraint.
func (r *Repository) Create(ctx context.Context, code string, input NewProduct, createdBy int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO products
	(code, name, category, asset_code, import_date, quantity, initial_quantity, unit, image_ref, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8, $9, NOW(), NOW())
RETURNING `+productColumns,
		code, input.Name, input.Category, input.AssetCode, nullDate(input.ImportDate),
		input.Quantity, input.Unit, nullString(input.ImageRef), nullInt(createdBy))
	p, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, fmt.Errorf("catalog: code %q already exists: %w", code, shared.ErrConflict)
		}
		return Product{}, err
	}
	return p, nil
}

// UpdateFields applies a partial update of descriptive columns and returns
// the refreshed product.
func (r *Repository) UpdateFields(ctx context.Context, id int64, update FieldUpdate) (Product, error) {
	if update.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	set := ``
	args := []any{}
	argCount := 0
	add := func(column string, value any) {
		argCount++
		if set != "" {
			set += ", "
		}
		set += column + " = $" + strconv.Itoa(argCount)
		args = append(args, value)
	}

	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Category != nil {
		add("category", *update.Category)
	}
	if update.AssetCode != nil {
		add("asset_code", *update.AssetCode)
	}
	if update.ImportDate != nil {
		add("import_date", nullDate(*update.ImportDate))
	}
	if update.Unit != nil {
		add("unit", *update.Unit)
	}
	if update.ImageRef != nil {
		add("image_ref", nullString(*update.ImageRef))
	}

	argCount++
	args = append(args, id)
	row := r.pool.QueryRow(ctx, `UPDATE products SET `+set+`, updated_at = NOW() WHERE id = $`+strconv.Itoa(argCount)+` RETURNING `+productColumns, args...)
	return scanProduct(row)
}

// Delete removes a product. Ledger rows keep their product reference for
// audit; activity rows null it out via the foreign key.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: product %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p          Product
		importDate *time.Time
		imageRef   *string
		createdBy  *int64
	)
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.AssetCode, &importDate,
		&p.Quantity, &p.Unit, &imageRef, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("catalog: product: %w", shared.ErrNotFound)
		}
		return Product{}, fmt.Errorf("catalog: scan product: %w", err)
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
