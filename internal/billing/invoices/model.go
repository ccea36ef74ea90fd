package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates the settlement lifecycle of an invoice.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "PENDING"
	StatusPaid    InvoiceStatus = "PAID"
	StatusOverdue InvoiceStatus = "OVERDUE"
)

// DefaultDueDays is applied when the caller does not supply a due date.
const DefaultDueDays = 30

// Invoice is a finalized bill. Invoices are immutable after creation
// except for the settlement columns, which only the settlement engine
// moves.
type Invoice struct {
	ID                  int64           `json:"id"`
	Number              string          `json:"number"`
	CompanyID           int64           `json:"company_id"`
	CustomerID          int64           `json:"customer_id"`
	QuotationID         *int64          `json:"quotation_id,omitempty"`
	InvoiceDate         time.Time       `json:"invoice_date"`
	DueDate             time.Time       `json:"due_date"`
	Status              InvoiceStatus   `json:"status"`
	DiscountPercent     decimal.Decimal `json:"discount_percent"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	TotalBeforeDiscount decimal.Decimal `json:"total_before_discount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	PaidAmount          decimal.Decimal `json:"paid_amount"`
	OutstandingAmount   decimal.Decimal `json:"outstanding_amount"`
	Notes               *string         `json:"notes,omitempty"`
	Items               []Item          `json:"items,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// IsOverdue reports whether the invoice is past due with money still
// outstanding, independent of whether the OVERDUE status has been
// persisted yet.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.OutstandingAmount.IsPositive() && i.DueDate.Before(now)
}

// Item is one invoice line, priced from the product catalog at creation
// time (or copied verbatim from a quotation on conversion).
type Item struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	ProductID   int64           `json:"product_id"`
	Description *string         `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}
