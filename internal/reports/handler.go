package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/qrstock/qrstock/internal/catalog"
	"github.com/qrstock/qrstock/internal/platform/httpx"
	"github.com/qrstock/qrstock/internal/stock"
)

// Handler wires HTTP endpoints for the reporting surface.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	exporter *Exporter
}

// NewHandler constructs a reports handler.
func NewHandler(logger *slog.Logger, service *Service, exporter *Exporter) *Handler {
	return &Handler{logger: logger, service: service, exporter: exporter}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.handleSummary)
	r.Get("/exports/products.xlsx", h.handleProductsExport)
	r.Get("/exports/ledger.xlsx", h.handleLedgerExport)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context())
	if err != nil {
		h.logger.Error("dashboard summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) handleProductsExport(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}
	f, err := h.exporter.ProductsXLSX(r.Context(), filter)
	if err != nil {
		h.logger.Error("products export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	writeWorkbook(w, f, Filename("products", time.Now().UTC().Format("20060102")))
}

func (h *Handler) handleLedgerExport(w http.ResponseWriter, r *http.Request) {
	filter := stock.LedgerFilter{
		Direction: stock.Direction(r.URL.Query().Get("direction")),
	}
	filter.ProductID, _ = strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	f, err := h.exporter.LedgerXLSX(r.Context(), filter)
	if err != nil {
		h.logger.Error("ledger export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	writeWorkbook(w, f, Filename("ledger", time.Now().UTC().Format("20060102")))
}

func writeWorkbook(w http.ResponseWriter, f *excelize.File, filename string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_ = f.Write(w)
}
