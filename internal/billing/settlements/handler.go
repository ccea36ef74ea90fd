package settlements

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tallyforge/tallyforge/internal/platform/httpx"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// Handler exposes settlement endpoints. Payments honour the
// Idempotency-Key header so a retried request cannot settle twice.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validate    *validator.Validate
	idempotency *shared.IdempotencyStore
}

// NewHandler builds Handler. The idempotency store may be nil, in which
// case the Idempotency-Key header is ignored.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, idempotency: idempotency}
}

// MountRoutes attaches settlement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}", func(r chi.Router) {
		r.Post("/invoices/{invoiceID}/settlements", h.ApplyPayment)
		r.Get("/settlements", h.List)
		r.Get("/settlements/{settlementID}", h.Show)
		r.Get("/settlements/summary", h.Summary)
	})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	invoiceID, ok2 := pathID(r, "invoiceID")
	if !ok || !ok2 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req ApplyPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	req.CompanyID = companyID
	req.InvoiceID = invoiceID
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if h.idempotency != nil && idemKey != "" {
		if err := h.idempotency.CheckAndInsert(r.Context(), idemKey, "settlements"); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}

	settlement, err := h.service.ApplyPayment(r.Context(), req)
	if err != nil {
		if h.idempotency != nil && idemKey != "" {
			// Release the key so the caller can retry after fixing the request.
			if derr := h.idempotency.Delete(r.Context(), idemKey); derr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		h.logger.Error("apply payment", slog.Any("error", err), slog.Int64("invoice_id", invoiceID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, settlement)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	settlementID, ok2 := pathID(r, "settlementID")
	if !ok || !ok2 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	settlement, err := h.service.Get(r.Context(), companyID, settlementID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settlement)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	req := ListSettlementsRequest{CompanyID: companyID}
	q := r.URL.Query()
	if v := q.Get("invoice_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid query parameter: invoice_id")
			return
		}
		req.InvoiceID = &id
	}
	if v := q.Get("method"); v != "" {
		method := PaymentMethod(v)
		if !method.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid query parameter: method")
			return
		}
		req.Method = &method
	}
	var perr error
	req.DateFrom, perr = parseDate(q.Get("date_from"))
	if perr != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid query parameter: date_from")
		return
	}
	req.DateTo, perr = parseDate(q.Get("date_to"))
	if perr != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid query parameter: date_to")
		return
	}

	out, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list settlements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

type summaryResponse struct {
	TotalCollected string        `json:"total_collected"`
	ByMethod       []MethodTotal `json:"by_method"`
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	q := r.URL.Query()
	from, perr := parseDate(q.Get("date_from"))
	if perr != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid query parameter: date_from")
		return
	}
	to, perr := parseDate(q.Get("date_to"))
	if perr != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid query parameter: date_to")
		return
	}

	summary, err := h.service.GetSummary(r.Context(), companyID, from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaryResponse{
		TotalCollected: summary.TotalCollected.StringFixed(2),
		ByMethod:       summary.ByMethod,
	})
}

func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
