package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qrstock/qrstock/internal/catalog"
	"github.com/qrstock/qrstock/internal/stock"
	_ "github.com/qrstock/qrstock/testing"
)

type staticProducts struct {
	products []catalog.Product
}

func (s *staticProducts) List(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, int, error) {
	return s.products, len(s.products), nil
}

type staticLedger struct {
	entries []stock.LedgerEntry
}

func (s *staticLedger) ListRecent(ctx context.Context, filter stock.LedgerFilter) ([]stock.LedgerEntry, error) {
	return s.entries, nil
}

func TestProductsXLSX(t *testing.T) {
	exporter := NewExporter(&staticProducts{products: []catalog.Product{
		{Code: "QR-20250901-000001", Name: "Projector", Category: "AV", Quantity: 4, Unit: "pcs", CreatedAt: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)},
	}}, &staticLedger{})

	f, err := exporter.ProductsXLSX(context.Background(), catalog.ListFilter{})
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	code, err := f.GetCellValue("Sheet1", "A2")
	require.NoError(t, err)
	require.Equal(t, "QR-20250901-000001", code)

	header, err := f.GetCellValue("Sheet1", "F1")
	require.NoError(t, err)
	require.Equal(t, "Quantity", header)

	quantity, err := f.GetCellValue("Sheet1", "F2")
	require.NoError(t, err)
	require.Equal(t, "4", quantity)
}

func TestLedgerXLSX(t *testing.T) {
	actorID := int64(7)
	exporter := NewExporter(&staticProducts{}, &staticLedger{entries: []stock.LedgerEntry{
		{ID: 1, ProductID: 3, ActorID: &actorID, Direction: stock.DirectionCheckout, Delta: -2, Note: "loaner", CreatedAt: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)},
	}})

	f, err := exporter.LedgerXLSX(context.Background(), stock.LedgerFilter{})
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	direction, err := f.GetCellValue("Sheet1", "D2")
	require.NoError(t, err)
	require.Equal(t, "CHECKOUT", direction)

	delta, err := f.GetCellValue("Sheet1", "E2")
	require.NoError(t, err)
	require.Equal(t, "-2", delta)
}

func TestFilename(t *testing.T) {
	require.Equal(t, "products-20250901.xlsx", Filename("products", "20250901"))
}
