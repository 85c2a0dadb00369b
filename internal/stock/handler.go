package stock

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/qrstock/qrstock/internal/activity"
	"github.com/qrstock/qrstock/internal/platform/httpx"
	"github.com/qrstock/qrstock/internal/shared"
)

// ActivityPort abstracts the audit trail for checkout records.
type ActivityPort interface {
	Record(ctx context.Context, entry activity.Entry) error
}

// Handler wires HTTP endpoints for stock mutations and ledger reads.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	activity  ActivityPort
	validator *validator.Validate
}

// NewHandler constructs a stock handler.
func NewHandler(logger *slog.Logger, service *Service, act ActivityPort) *Handler {
	return &Handler{logger: logger, service: service, activity: act, validator: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/checkout", h.handleCheckout)
	r.Post("/receive", h.handleReceive)
	r.Post("/adjust", h.handleAdjust)
	r.Get("/ledger", h.handleLedger)
	r.Get("/ledger/{productID}", h.handleProductLedger)
}

type checkoutRequest struct {
	Code     string `json:"code" validate:"required"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Note     string `json:"note" validate:"max=500"`
}

type receiveRequest struct {
	Code     string `json:"code" validate:"required"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Note     string `json:"note" validate:"max=500"`
	Ref      string `json:"ref" validate:"omitempty,uuid"`
}

type adjustRequest struct {
	Code  string `json:"code" validate:"required"`
	Delta int64  `json:"delta" validate:"required"`
	Note  string `json:"note" validate:"max=500"`
	Ref   string `json:"ref" validate:"omitempty,uuid"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", validationDetail(err))
		return
	}

	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.ApplyStockChange(r.Context(), ChangeInput{
		Code:      req.Code,
		Delta:     -req.Quantity,
		Direction: DirectionCheckout,
		ActorID:   actor.ID,
		Note:      req.Note,
	})
	if err != nil {
		h.logger.Warn("checkout failed",
			slog.String("code", req.Code),
			slog.Int64("quantity", req.Quantity),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	// The engine only writes the ledger; the checkout caller owns the
	// human-readable audit trail entry.
	if h.activity != nil {
		detail := map[string]any{
			"quantity":  req.Quantity,
			"remaining": result.Product.Quantity,
		}
		if req.Note != "" {
			detail["note"] = req.Note
		}
		if err := h.activity.Record(r.Context(), activity.Entry{
			ProductID: activity.OptionalID(result.Product.ID),
			ActorID:   activity.OptionalID(actor.ID),
			Action:    activity.ActionCheckout,
			Detail:    detail,
		}); err != nil {
			h.logger.Error("record checkout activity", slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", validationDetail(err))
		return
	}

	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.ApplyStockChange(r.Context(), ChangeInput{
		Code:      req.Code,
		Delta:     req.Quantity,
		Direction: DirectionIn,
		ActorID:   actor.ID,
		Note:      req.Note,
		Ref:       req.Ref,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", validationDetail(err))
		return
	}

	direction := DirectionIn
	if req.Delta < 0 {
		direction = DirectionOut
	}

	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.ApplyStockChange(r.Context(), ChangeInput{
		Code:      req.Code,
		Delta:     req.Delta,
		Direction: direction,
		ActorID:   actor.ID,
		Note:      req.Note,
		Ref:       req.Ref,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := LedgerFilter{
		Direction: Direction(q.Get("direction")),
	}
	filter.ProductID, _ = strconv.ParseInt(q.Get("product_id"), 10, 64)
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	entries, err := h.service.ListRecent(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []LedgerEntry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) handleProductLedger(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "product id must be numeric")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.service.ListForProduct(r.Context(), productID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []LedgerEntry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func validationDetail(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return errs[0].Error()
	}
	return "validation failed"
}
