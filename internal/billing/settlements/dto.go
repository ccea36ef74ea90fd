package settlements

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplyPaymentRequest records a payment against an invoice.
type ApplyPaymentRequest struct {
	CompanyID   int64      `json:"-"`
	InvoiceID   int64      `json:"-"`
	Amount      float64    `json:"amount" validate:"required,gt=0"`
	Method      string     `json:"method,omitempty" validate:"omitempty,oneof=CASH CREDIT_CARD DEBIT_CARD BANK_TRANSFER UPI CHEQUE"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
	Reference   *string    `json:"reference,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// ListSettlementsRequest filters company-scoped settlement listings.
type ListSettlementsRequest struct {
	CompanyID int64          `json:"-"`
	InvoiceID *int64         `json:"invoice_id,omitempty"`
	Method    *PaymentMethod `json:"method,omitempty"`
	DateFrom  *time.Time     `json:"date_from,omitempty"`
	DateTo    *time.Time     `json:"date_to,omitempty"`
	Limit     int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int            `json:"offset" validate:"gte=0"`
}

// MethodTotal is one row of the collected-by-method summary.
type MethodTotal struct {
	Method PaymentMethod   `json:"method"`
	Total  decimal.Decimal `json:"total"`
}
