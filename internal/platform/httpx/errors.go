package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tallyforge/tallyforge/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var ruleErr *shared.BusinessRuleError
	var stockErr *shared.InsufficientStockError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	case errors.As(err, &stockErr):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Insufficient Inventory",
			Status: http.StatusBadRequest,
			Detail: stockErr.Error(),
			Items:  stockErr.Items,
		})
	case errors.As(err, &ruleErr):
		Problem(w, http.StatusBadRequest, "Business Rule Violation", ruleErr.Reason)
	case errors.As(err, &validationErrs):
		Problem(w, http.StatusBadRequest, "Validation Failed", validationErrs.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
