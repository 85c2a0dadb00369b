package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/qrstock/qrstock/internal/catalog"
	"github.com/qrstock/qrstock/internal/shared"
)

// RepositoryPort abstracts repository usage for the engine.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListForProduct(ctx context.Context, productID int64, limit int) ([]LedgerEntry, error)
	ListRecent(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error)
}

// LookupPort resolves a product without locking it, used for the cheap
// pre-transaction existence check.
type LookupPort interface {
	GetByCode(ctx context.Context, code string) (catalog.Product, error)
}

// SummaryInvalidator is notified after a committed mutation so derived
// read models can drop stale state.
type SummaryInvalidator interface {
	InvalidateSummary(ctx context.Context) error
}

// MetricsPort counts mutation attempts.
type MetricsPort interface {
	ObserveStockMutation(direction, outcome string)
}

// ChangeResult carries the committed state back to the caller: the product
// as of the commit and the ledger entry that witnessed the change.
type ChangeResult struct {
	Product catalog.Product `json:"product"`
	Entry   LedgerEntry     `json:"entry"`
}

// Service is the stock mutation engine. All quantity changes in the system
// funnel through ApplyStockChange; nothing else writes products.quantity or
// stock_ledger.
type Service struct {
	repo       RepositoryPort
	lookup     LookupPort
	invalidate SummaryInvalidator
	metrics    MetricsPort
}

// NewService builds Service. The invalidator and metrics ports are optional.
func NewService(repo RepositoryPort, lookup LookupPort, invalidate SummaryInvalidator, metrics MetricsPort) *Service {
	return &Service{repo: repo, lookup: lookup, invalidate: invalidate, metrics: metrics}
}

// ApplyStockChange atomically applies a signed quantity change to the product
// identified by code and appends a matching ledger entry.
//
// The sequence inside the transaction is lock, validate, write: the product
// row is read FOR UPDATE, the post-change quantity is checked against zero
// while the lock is held, and only then are the quantity update and ledger
// insert issued. Two concurrent calls for the same code serialize on the row
// lock, so the second caller always sees the first caller's committed
// quantity before its own validation runs. On any failure after the
// transaction begins, the deferred rollback releases the lock and no partial
// state survives.
func (s *Service) ApplyStockChange(ctx context.Context, input ChangeInput) (ChangeResult, error) {
	input.Code = strings.TrimSpace(input.Code)
	input.Note = strings.TrimSpace(input.Note)

	if err := s.validate(&input); err != nil {
		s.observe(input.Direction, "invalid")
		return ChangeResult{}, err
	}

	// Cheap existence check before any lock or transaction. A product that
	// vanishes between this read and the locked read is caught again inside
	// the transaction.
	if _, err := s.lookup.GetByCode(ctx, input.Code); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.observe(input.Direction, "not_found")
			return ChangeResult{}, err
		}
		s.observe(input.Direction, "error")
		return ChangeResult{}, fmt.Errorf("stock: resolve product: %v: %w", err, shared.ErrStorageFailure)
	}

	var result ChangeResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, input.Code)
		if err != nil {
			return err
		}

		newQuantity := product.Quantity + input.Delta
		if newQuantity < 0 {
			return fmt.Errorf("stock: %q has %d, cannot apply %+d: %w",
				product.Code, product.Quantity, input.Delta, shared.ErrInsufficientStock)
		}

		if err := tx.UpdateQuantity(ctx, product.ID, newQuantity); err != nil {
			return err
		}

		entry, err := tx.InsertLedgerEntry(ctx, LedgerEntry{
			ProductID: product.ID,
			ActorID:   optionalActor(input.ActorID),
			Direction: input.Direction,
			Delta:     input.Delta,
			Note:      input.Note,
			Ref:       input.Ref,
		})
		if err != nil {
			return err
		}

		product.Quantity = newQuantity
		product.UpdatedAt = entry.CreatedAt
		result = ChangeResult{Product: product, Entry: entry}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			s.observe(input.Direction, "not_found")
			return ChangeResult{}, err
		case errors.Is(err, shared.ErrInsufficientStock):
			s.observe(input.Direction, "insufficient")
			return ChangeResult{}, err
		default:
			// Anything else is infrastructure: the caller must treat the
			// mutation as not applied.
			s.observe(input.Direction, "error")
			return ChangeResult{}, fmt.Errorf("stock: apply change: %v: %w", err, shared.ErrStorageFailure)
		}
	}

	s.observe(input.Direction, "ok")
	if s.invalidate != nil {
		_ = s.invalidate.InvalidateSummary(ctx)
	}
	return result, nil
}

// ListForProduct returns the mutation history of one product.
func (s *Service) ListForProduct(ctx context.Context, productID int64, limit int) ([]LedgerEntry, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("stock: product id required: %w", shared.ErrInvalidArgument)
	}
	return s.repo.ListForProduct(ctx, productID, limit)
}

// ListRecent returns recent ledger entries matching the filter.
func (s *Service) ListRecent(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	if filter.Direction != "" {
		if err := validDirection(filter.Direction); err != nil {
			return nil, err
		}
	}
	return s.repo.ListRecent(ctx, filter)
}

func (s *Service) validate(input *ChangeInput) error {
	if input.Code == "" {
		return fmt.Errorf("stock: code required: %w", shared.ErrInvalidArgument)
	}
	if input.Delta == 0 {
		return fmt.Errorf("stock: delta must be non-zero: %w", shared.ErrInvalidArgument)
	}
	if input.Direction == "" {
		input.Direction = DirectionIn
		if input.Delta < 0 {
			input.Direction = DirectionOut
		}
	}
	if err := validDirection(input.Direction); err != nil {
		return err
	}
	// Checkouts and issues remove stock, receipts add it. A mismatched sign
	// is a caller bug, not a business failure.
	if (input.Direction == DirectionIn) != (input.Delta > 0) {
		return fmt.Errorf("stock: delta sign does not match direction %s: %w", input.Direction, shared.ErrInvalidArgument)
	}
	if input.Ref != "" {
		if _, err := uuid.Parse(input.Ref); err != nil {
			return fmt.Errorf("stock: ref must be a UUID: %w", shared.ErrInvalidArgument)
		}
	}
	return nil
}

func (s *Service) observe(direction Direction, outcome string) {
	if s.metrics == nil {
		return
	}
	d := string(direction)
	if d == "" {
		d = "unknown"
	}
	s.metrics.ObserveStockMutation(d, outcome)
}

func validDirection(d Direction) error {
	switch d {
	case DirectionIn, DirectionOut, DirectionCheckout:
		return nil
	default:
		return fmt.Errorf("stock: unknown direction %q: %w", d, shared.ErrInvalidArgument)
	}
}

func optionalActor(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
