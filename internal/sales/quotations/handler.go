package quotations

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tallyforge/tallyforge/internal/platform/httpx"
)

// Handler exposes quotation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes attaches quotation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/quotations", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{quotationID}", h.Show)
		r.Put("/{quotationID}", h.Update)
		r.Delete("/{quotationID}", h.Delete)
		r.Post("/{quotationID}/send", h.MarkSent)
		r.Post("/{quotationID}/approve", h.Approve)
	})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	req.CompanyID = companyID
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	q, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create quotation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	quotationID, ok2 := pathID(r, "quotationID")
	if !ok || !ok2 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req UpdateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	q, err := h.service.Update(r.Context(), companyID, quotationID, req)
	if err != nil {
		h.logger.Error("update quotation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	quotationID, ok2 := pathID(r, "quotationID")
	if !ok || !ok2 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	q, err := h.service.Get(r.Context(), companyID, quotationID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	req, err := parseListQuery(r, companyID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	out, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	quotationID, ok2 := pathID(r, "quotationID")
	if !ok || !ok2 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.SoftDelete(r.Context(), companyID, quotationID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkSent(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkSent)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, companyID, id int64) (*Quotation, error)) {
	companyID, ok := pathID(r, "companyID")
	quotationID, ok2 := pathID(r, "quotationID")
	if !ok || !ok2 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	q, err := fn(r.Context(), companyID, quotationID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func parseListQuery(r *http.Request, companyID int64) (ListQuotationsRequest, error) {
	req := ListQuotationsRequest{CompanyID: companyID}
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status := QuotationStatus(v)
		switch status {
		case StatusDraft, StatusSent, StatusApproved, StatusConverted:
			req.Status = &status
		default:
			return req, errInvalidQuery("status")
		}
	}
	if v := q.Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, errInvalidQuery("customer_id")
		}
		req.CustomerID = &id
	}
	if v := q.Get("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return req, errInvalidQuery("date_from")
		}
		req.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return req, errInvalidQuery("date_to")
		}
		req.DateTo = &t
	}
	if v := q.Get("min_total"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, errInvalidQuery("min_total")
		}
		req.MinTotal = &f
	}
	if v := q.Get("max_total"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, errInvalidQuery("max_total")
		}
		req.MaxTotal = &f
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, errInvalidQuery("limit")
		}
		req.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, errInvalidQuery("offset")
		}
		req.Offset = n
	}
	return req, nil
}

type queryError string

func errInvalidQuery(param string) error { return queryError(param) }

func (e queryError) Error() string { return "invalid query parameter: " + string(e) }
