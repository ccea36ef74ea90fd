package companies

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tallyforge/tallyforge/internal/platform/httpx"
)

// Handler exposes company endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes attaches company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies", h.List)
	r.Post("/companies", h.Create)
	r.Get("/companies/{companyID}", h.Show)
	r.Put("/companies/{companyID}", h.Update)
}

type companyRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Address   *string `json:"address,omitempty"`
	Mobile    *string `json:"mobile,omitempty"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	GSTNumber *string `json:"gst_number,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list companies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	company, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	company, err := h.service.Create(r.Context(), Company{
		Name:      req.Name,
		Address:   req.Address,
		Mobile:    req.Mobile,
		Email:     req.Email,
		GSTNumber: req.GSTNumber,
	})
	if err != nil {
		h.logger.Error("create company", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, company)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	var req companyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	company, err := h.service.Update(r.Context(), Company{
		ID:        id,
		Name:      req.Name,
		Address:   req.Address,
		Mobile:    req.Mobile,
		Email:     req.Email,
		GSTNumber: req.GSTNumber,
		Active:    active,
	})
	if err != nil {
		h.logger.Error("update company", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}
