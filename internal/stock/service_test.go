package stock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qrstock/qrstock/internal/catalog"
	"github.com/qrstock/qrstock/internal/shared"
	_ "github.com/qrstock/qrstock/testing"
)

// memoryRepo emulates the row-locked transaction path: WithTx serializes on
// a mutex the way concurrent transactions serialize on the row lock, and
// writes stage in the tx, applying only when the callback succeeds.
type memoryRepo struct {
	mu         sync.Mutex
	products   map[string]catalog.Product
	ledger     []LedgerEntry
	nextID     int64
	txCalls    int
	failInsert bool
}

type memoryTx struct {
	repo   *memoryRepo
	staged []func()
}

func newMemoryRepo(products ...catalog.Product) *memoryRepo {
	repo := &memoryRepo{products: make(map[string]catalog.Product)}
	for _, p := range products {
		repo.products[p.Code] = p
	}
	return repo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txCalls++
	tx := &memoryTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, apply := range tx.staged {
		apply()
	}
	return nil
}

func (r *memoryRepo) ListForProduct(ctx context.Context, productID int64, limit int) ([]LedgerEntry, error) {
	var out []LedgerEntry
	for _, e := range r.ledger {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListRecent(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	out := make([]LedgerEntry, len(r.ledger))
	copy(out, r.ledger)
	return out, nil
}

// GetByCode satisfies LookupPort outside the transaction.
func (r *memoryRepo) GetByCode(ctx context.Context, code string) (catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[code]; ok {
		return p, nil
	}
	return catalog.Product{}, fmt.Errorf("catalog: product %q: %w", code, shared.ErrNotFound)
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, code string) (catalog.Product, error) {
	if p, ok := tx.repo.products[code]; ok {
		return p, nil
	}
	return catalog.Product{}, fmt.Errorf("stock: product %q: %w", code, shared.ErrNotFound)
}

func (tx *memoryTx) UpdateQuantity(ctx context.Context, productID, quantity int64) error {
	tx.staged = append(tx.staged, func() {
		for code, p := range tx.repo.products {
			if p.ID == productID {
				p.Quantity = quantity
				tx.repo.products[code] = p
			}
		}
	})
	return nil
}

func (tx *memoryTx) InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error) {
	if tx.repo.failInsert {
		return LedgerEntry{}, errors.New("ledger insert: connection reset")
	}
	tx.repo.nextID++
	entry.ID = tx.repo.nextID
	entry.CreatedAt = time.Now().UTC()
	tx.staged = append(tx.staged, func() {
		tx.repo.ledger = append(tx.repo.ledger, entry)
	})
	return entry, nil
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) InvalidateSummary(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

func testProduct(id int64, code string, quantity int64) catalog.Product {
	return catalog.Product{ID: id, Code: code, Name: "Test Item", Quantity: quantity}
}

func TestApplyStockChangeCheckout(t *testing.T) {
	repo := newMemoryRepo(testProduct(1, "QR-20250901-000001", 10))
	invalidator := &countingInvalidator{}
	svc := NewService(repo, repo, invalidator, nil)

	result, err := svc.ApplyStockChange(context.Background(), ChangeInput{
		Code:      "QR-20250901-000001",
		Delta:     -3,
		Direction: DirectionCheckout,
		ActorID:   7,
		Note:      "site visit kit",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), result.Product.Quantity)
	require.Equal(t, DirectionCheckout, result.Entry.Direction)
	require.Equal(t, int64(-3), result.Entry.Delta)
	require.NotNil(t, result.Entry.ActorID)
	require.Equal(t, int64(7), *result.Entry.ActorID)

	require.Equal(t, int64(7), repo.products["QR-20250901-000001"].Quantity)
	require.Len(t, repo.ledger, 1)
	require.Equal(t, 1, invalidator.calls)
}

func TestApplyStockChangeReceive(t *testing.T) {
	repo := newMemoryRepo(testProduct(1, "QR-20250901-000002", 0))
	svc := NewService(repo, repo, nil, nil)

	result, err := svc.ApplyStockChange(context.Background(), ChangeInput{
		Code:  "QR-20250901-000002",
		Delta: 4,
	})
	require.NoError(t, err)
	require.Equal(t, int64(4), result.Product.Quantity)
	// Direction defaults from the delta sign.
	require.Equal(t, DirectionIn, result.Entry.Direction)
}

func TestApplyStockChangeInsufficientStock(t *testing.T) {
	repo := newMemoryRepo(testProduct(1, "QR-20250901-000003", 2))
	invalidator := &countingInvalidator{}
	svc := NewService(repo, repo, invalidator, nil)

	_, err := svc.ApplyStockChange(context.Background(), ChangeInput{
		Code:      "QR-20250901-000003",
		Delta:     -5,
		Direction: DirectionCheckout,
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	// The refused change leaves no trace: quantity intact, no ledger row,
	// no cache invalidation.
	require.Equal(t, int64(2), repo.products["QR-20250901-000003"].Quantity)
	require.Empty(t, repo.ledger)
	require.Equal(t, 0, invalidator.calls)
}

func TestApplyStockChangeUnknownCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, repo, nil, nil)

	_, err := svc.ApplyStockChange(context.Background(), ChangeInput{
		Code:  "QR-20250901-999999",
		Delta: -1,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Zero(t, repo.txCalls, "no transaction should open for a missing product")
}

func TestApplyStockChangeValidation(t *testing.T) {
	repo := newMemoryRepo(testProduct(1, "QR-20250901-000004", 10))
	svc := NewService(repo, repo, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		input ChangeInput
	}{
		{"empty code", ChangeInput{Delta: 1}},
		{"zero delta", ChangeInput{Code: "QR-20250901-000004"}},
		{"sign mismatch in", ChangeInput{Code: "QR-20250901-000004", Delta: -2, Direction: DirectionIn}},
		{"sign mismatch checkout", ChangeInput{Code: "QR-20250901-000004", Delta: 2, Direction: DirectionCheckout}},
		{"unknown direction", ChangeInput{Code: "QR-20250901-000004", Delta: 1, Direction: Direction("SIDEWAYS")}},
		{"malformed ref", ChangeInput{Code: "QR-20250901-000004", Delta: 1, Ref: "not-a-uuid"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ApplyStockChange(ctx, tc.input)
			require.ErrorIs(t, err, shared.ErrInvalidArgument)
		})
	}
	require.Zero(t, repo.txCalls)
	require.Empty(t, repo.ledger)
}

func TestApplyStockChangeAtomicity(t *testing.T) {
	repo := newMemoryRepo(testProduct(1, "QR-20250901-000005", 10))
	repo.failInsert = true
	svc := NewService(repo, repo, nil, nil)

	_, err := svc.ApplyStockChange(context.Background(), ChangeInput{
		Code:  "QR-20250901-000005",
		Delta: -3,
	})
	require.ErrorIs(t, err, shared.ErrStorageFailure)

	// The quantity update staged before the failing ledger insert must not
	// survive the rollback.
	require.Equal(t, int64(10), repo.products["QR-20250901-000005"].Quantity)
	require.Empty(t, repo.ledger)
}

func TestApplyStockChangeConcurrent(t *testing.T) {
	repo := newMemoryRepo(testProduct(1, "QR-20250901-000006", 5))
	svc := NewService(repo, repo, nil, nil)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyStockChange(context.Background(), ChangeInput{
				Code:      "QR-20250901-000006",
				Delta:     -5,
				Direction: DirectionCheckout,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, shared.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok, "exactly one checkout wins the race")
	require.Equal(t, 1, insufficient, "the loser sees the committed quantity, not the stale one")
	require.Equal(t, int64(0), repo.products["QR-20250901-000006"].Quantity)
	require.Len(t, repo.ledger, 1)
}

func TestListForProductRequiresID(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, repo, nil, nil)

	_, err := svc.ListForProduct(context.Background(), 0, 10)
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestListRecentRejectsUnknownDirection(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, repo, nil, nil)

	_, err := svc.ListRecent(context.Background(), LedgerFilter{Direction: Direction("UP")})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}
