package reports

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/qrstock/qrstock/internal/catalog"
	"github.com/qrstock/qrstock/internal/stock"
)

// ProductListPort supplies the committed product list for exports.
type ProductListPort interface {
	List(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, int, error)
}

// LedgerListPort supplies committed ledger history for exports.
type LedgerListPort interface {
	ListRecent(ctx context.Context, filter stock.LedgerFilter) ([]stock.LedgerEntry, error)
}

// Exporter renders spreadsheet exports over the read API. It never holds a
// transaction open; each export is one committed snapshot read.
type Exporter struct {
	products ProductListPort
	ledger   LedgerListPort
}

// NewExporter builds Exporter.
func NewExporter(products ProductListPort, ledger LedgerListPort) *Exporter {
	return &Exporter{products: products, ledger: ledger}
}

const exportSheet = "Sheet1"

// ProductsXLSX renders the full product list as an Excel workbook.
func (e *Exporter) ProductsXLSX(ctx context.Context, filter catalog.ListFilter) (*excelize.File, error) {
	products, _, err := e.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	headers := []string{"Code", "Name", "Category", "AssetCode", "ImportDate", "Quantity", "Unit", "CreatedAt"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, header)
	}
	for i, p := range products {
		row := strconv.Itoa(i + 2)
		_ = f.SetCellValue(exportSheet, "A"+row, p.Code)
		_ = f.SetCellValue(exportSheet, "B"+row, p.Name)
		_ = f.SetCellValue(exportSheet, "C"+row, p.Category)
		_ = f.SetCellValue(exportSheet, "D"+row, p.AssetCode)
		if !p.ImportDate.IsZero() {
			_ = f.SetCellValue(exportSheet, "E"+row, p.ImportDate.Format("2006-01-02"))
		}
		_ = f.SetCellValue(exportSheet, "F"+row, p.Quantity)
		_ = f.SetCellValue(exportSheet, "G"+row, p.Unit)
		_ = f.SetCellValue(exportSheet, "H"+row, p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return f, nil
}

// LedgerXLSX renders recent ledger history as an Excel workbook.
func (e *Exporter) LedgerXLSX(ctx context.Context, filter stock.LedgerFilter) (*excelize.File, error) {
	entries, err := e.ledger.ListRecent(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	headers := []string{"ID", "ProductID", "ActorID", "Direction", "Delta", "Note", "CreatedAt"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, header)
	}
	for i, entry := range entries {
		row := strconv.Itoa(i + 2)
		_ = f.SetCellValue(exportSheet, "A"+row, entry.ID)
		_ = f.SetCellValue(exportSheet, "B"+row, entry.ProductID)
		if entry.ActorID != nil {
			_ = f.SetCellValue(exportSheet, "C"+row, *entry.ActorID)
		}
		_ = f.SetCellValue(exportSheet, "D"+row, string(entry.Direction))
		_ = f.SetCellValue(exportSheet, "E"+row, entry.Delta)
		_ = f.SetCellValue(exportSheet, "F"+row, entry.Note)
		_ = f.SetCellValue(exportSheet, "G"+row, entry.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return f, nil
}

// Filename builds an attachment name like products-20240101.xlsx.
func Filename(kind, datePart string) string {
	return fmt.Sprintf("%s-%s.xlsx", kind, datePart)
}
