package challans

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tallyforge/tallyforge/internal/platform/httpx"
)

// Handler exposes delivery challan endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes attaches challan routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/challans", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Issue)
		r.Get("/{challanID}", h.Show)
	})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	var req IssueChallanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	req.CompanyID = companyID
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	c, err := h.service.Issue(r.Context(), req)
	if err != nil {
		h.logger.Error("issue challan", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	challanID, ok2 := pathID(r, "challanID")
	if !ok || !ok2 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	c, err := h.service.Get(r.Context(), companyID, challanID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	out, err := h.service.List(r.Context(), companyID, limit)
	if err != nil {
		h.logger.Error("list challans", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
