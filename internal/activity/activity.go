// Package activity keeps the append-only audit trail of catalog mutations
// and checkouts. Entries are never updated or deleted by application code;
// a retention job trims old rows wholesale.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Action kinds recorded in the trail.
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionCheckout = "checkout"
)

// Entry represents one audit record. ProductID is nullable so the trail
// survives a product being deleted; ActorID is nullable for system-initiated
// actions. Detail is an opaque structured payload for later human review.
type Entry struct {
	ID        int64          `json:"id"`
	ProductID *int64         `json:"product_id"`
	ActorID   *int64         `json:"actor_id"`
	Action    string         `json:"action"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

// ListFilter narrows activity listings.
type ListFilter struct {
	ProductID int64
	Action    string
	Limit     int
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Recorder persists entries in PostgreSQL.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record appends one entry. The timestamp is server-assigned.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if r == nil {
		return errors.New("activity recorder not initialised")
	}
	if entry.Action == "" {
		return errors.New("activity entry requires an action")
	}
	detailJSON, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("activity: marshal detail: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO activity_log (product_id, actor_id, action, detail, created_at) VALUES ($1, $2, $3, $4, NOW())`,
		entry.ProductID, entry.ActorID, entry.Action, detailJSON)
	if err != nil {
		return fmt.Errorf("activity: record: %w", err)
	}
	return nil
}

// List returns recent entries, newest first. The limit is clamped to a
// sane window so an unbounded request cannot drag the whole table.
func (r *Recorder) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	if r == nil {
		return nil, errors.New("activity recorder not initialised")
	}
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.ProductID != 0 {
		argCount++
		where += ` AND product_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.ProductID)
	}
	if filter.Action != "" {
		argCount++
		where += ` AND action = $` + strconv.Itoa(argCount)
		args = append(args, filter.Action)
	}

	argCount++
	args = append(args, clampLimit(filter.Limit))

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, actor_id, action, detail, created_at FROM activity_log`+
			where+` ORDER BY created_at DESC, id DESC LIMIT $`+strconv.Itoa(argCount), args...)
	if err != nil {
		return nil, fmt.Errorf("activity: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			detailJSON []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ProductID, &entry.ActorID, &entry.Action, &detailJSON, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("activity: scan: %w", err)
		}
		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &entry.Detail); err != nil {
				return nil, fmt.Errorf("activity: unmarshal detail: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Cleanup removes entries older than the retention window.
func (r *Recorder) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if r == nil {
		return 0, nil
	}
	cutoff := time.Now().Add(-olderThan)
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("activity: cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// OptionalID converts a surrogate id to its nullable form, zero meaning absent.
func OptionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
