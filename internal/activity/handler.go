package activity

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qrstock/qrstock/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the audit trail.
type Handler struct {
	logger   *slog.Logger
	recorder *Recorder
}

// NewHandler constructs an activity handler.
func NewHandler(logger *slog.Logger, recorder *Recorder) *Handler {
	return &Handler{logger: logger, recorder: recorder}
}

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Action: q.Get("action"),
	}
	filter.ProductID, _ = strconv.ParseInt(q.Get("product_id"), 10, 64)
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	entries, err := h.recorder.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list activity", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}
