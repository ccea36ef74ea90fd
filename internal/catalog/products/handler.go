package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tallyforge/tallyforge/internal/platform/httpx"
)

// Handler exposes product catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes attaches product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{productID}", h.Show)
		r.Put("/{productID}", h.Update)
		r.Delete("/{productID}", h.Deactivate)
	})
}

type productRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Barcode       *string `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Category      string  `json:"category,omitempty" validate:"omitempty,max=100"`
	CostPrice     float64 `json:"cost_price" validate:"gte=0"`
	SellingPrice  float64 `json:"selling_price" validate:"required,gt=0"`
	TaxRate       float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	StockQuantity *int64  `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Type          string  `json:"type,omitempty" validate:"omitempty,oneof=PRODUCT SERVICE"`
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func (req productRequest) toProduct() Product {
	category := req.Category
	if category == "" {
		category = "General"
	}
	return Product{
		Name:          req.Name,
		Barcode:       req.Barcode,
		Category:      category,
		CostPrice:     decimal.NewFromFloat(req.CostPrice).Round(2),
		SellingPrice:  decimal.NewFromFloat(req.SellingPrice).Round(2),
		TaxRate:       decimal.NewFromFloat(req.TaxRate),
		StockQuantity: req.StockQuantity,
		Type:          ProductType(req.Type),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	out, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	productID, ok2 := pathID(r, "productID")
	if !ok || !ok2 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	product, err := h.service.Get(r.Context(), productID, companyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	product := req.toProduct()
	product.CompanyID = companyID
	created, err := h.service.Create(r.Context(), product)
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	productID, ok2 := pathID(r, "productID")
	if !ok || !ok2 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	product := req.toProduct()
	product.ID = productID
	product.CompanyID = companyID
	updated, err := h.service.Update(r.Context(), product)
	if err != nil {
		h.logger.Error("update product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	productID, ok2 := pathID(r, "productID")
	if !ok || !ok2 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.Deactivate(r.Context(), productID, companyID); err != nil {
		h.logger.Error("deactivate product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
