package quotations

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuotationStatus enumerates the quotation lifecycle.
type QuotationStatus string

const (
	StatusDraft     QuotationStatus = "DRAFT"
	StatusSent      QuotationStatus = "SENT"
	StatusApproved  QuotationStatus = "APPROVED"
	StatusConverted QuotationStatus = "CONVERTED"
)

// Quotation is the priced offer sent to a customer. Only DRAFT quotations
// are mutable, and only DRAFT quotations convert to an invoice — at most
// once, tracked by the weak InvoiceID back-reference.
type Quotation struct {
	ID                  int64           `json:"id"`
	Number              string          `json:"number"`
	CompanyID           int64           `json:"company_id"`
	CustomerID          int64           `json:"customer_id"`
	QuoteDate           time.Time       `json:"quote_date"`
	Status              QuotationStatus `json:"status"`
	DiscountPercent     decimal.Decimal `json:"discount_percent"`
	DiscountReason      *string         `json:"discount_reason,omitempty"`
	Notes               *string         `json:"notes,omitempty"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	TotalBeforeDiscount decimal.Decimal `json:"total_before_discount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	InvoiceID           *int64          `json:"invoice_id,omitempty"`
	Deleted             bool            `json:"-"`
	Items               []Item          `json:"items,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Item is one quotation line. Unit price and tax rate are frozen to the
// values supplied at creation time; they are never re-derived from the
// live product afterwards.
type Item struct {
	ID          int64           `json:"id"`
	QuotationID int64           `json:"quotation_id"`
	ProductID   int64           `json:"product_id"`
	Description *string         `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}
