package catalog

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/qrstock/qrstock/internal/platform/httpx"
	"github.com/qrstock/qrstock/internal/shared"
)

// Handler wires HTTP endpoints for the product catalog.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/lookup", h.handleLookup)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	r.Get("/{id}/qrcode", h.handleQRCode)
}

type createProductRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Category   string `json:"category" validate:"max=255"`
	AssetCode  string `json:"asset_code" validate:"max=64"`
	ImportDate string `json:"import_date" validate:"omitempty,datetime=2006-01-02"`
	Quantity   int64  `json:"quantity" validate:"gte=0"`
	Unit       string `json:"unit" validate:"max=32"`
	ImageRef   string `json:"image_ref" validate:"max=512"`
}

// updateProductRequest deliberately has no quantity field. DecodeJSON rejects
// unknown fields, so a payload trying to edit quantity through the catalog
// fails with a 400 instead of silently bypassing the stock engine.
type updateProductRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=255"`
	Category   *string `json:"category" validate:"omitempty,max=255"`
	AssetCode  *string `json:"asset_code" validate:"omitempty,max=64"`
	ImportDate *string `json:"import_date" validate:"omitempty,datetime=2006-01-02"`
	Unit       *string `json:"unit" validate:"omitempty,max=32"`
	ImageRef   *string `json:"image_ref" validate:"omitempty,max=512"`
}

type listResponse struct {
	Products   []Product         `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	if from := q.Get("import_date_from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "import_date_from must be YYYY-MM-DD")
			return
		}
		filter.ImportDateFrom = t
	}
	if to := q.Get("import_date_to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "import_date_to must be YYYY-MM-DD")
			return
		}
		// Inclusive end of day.
		filter.ImportDateTo = t.Add(24*time.Hour - time.Nanosecond)
	}

	products, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Products: products, Pagination: pagination})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	product, err := h.service.LookupByCode(r.Context(), code)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "product id must be numeric")
		return
	}
	product, err := h.service.LookupByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", validationDetail(err))
		return
	}

	input := NewProduct{
		Name:      req.Name,
		Category:  req.Category,
		AssetCode: req.AssetCode,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		ImageRef:  req.ImageRef,
	}
	if req.ImportDate != "" {
		input.ImportDate, _ = time.Parse("2006-01-02", req.ImportDate)
	}

	actor := shared.ActorFromContext(r.Context())
	product, err := h.service.Create(r.Context(), input, actor.ID)
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "product id must be numeric")
		return
	}

	var req updateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", validationDetail(err))
		return
	}

	update := FieldUpdate{
		Name:      req.Name,
		Category:  req.Category,
		AssetCode: req.AssetCode,
		Unit:      req.Unit,
		ImageRef:  req.ImageRef,
	}
	if req.ImportDate != nil {
		t, _ := time.Parse("2006-01-02", *req.ImportDate)
		update.ImportDate = &t
	}

	actor := shared.ActorFromContext(r.Context())
	product, err := h.service.UpdateFields(r.Context(), id, update, actor.ID)
	if err != nil {
		h.logger.Error("update product", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "product id must be numeric")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), id, actor.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleQRCode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "product id must be numeric")
		return
	}
	product, err := h.service.LookupByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	png, err := qrcode.Encode(product.Code, qrcode.Medium, 256)
	if err != nil {
		h.logger.Error("render qr code", slog.Any("error", err), slog.String("code", product.Code))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func validationDetail(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return errs[0].Error()
	}
	return "validation failed"
}
