package invoices

import "time"

// ItemRequest names a product and quantity. Unit price and tax rate are
// always taken from the live catalog, never from the caller.
type ItemRequest struct {
	ProductID   int64   `json:"product_id" validate:"required,gt=0"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	Description *string `json:"description,omitempty"`
}

// CreateInvoiceRequest creates an invoice directly, without a quotation.
type CreateInvoiceRequest struct {
	CompanyID       int64         `json:"-"`
	CustomerID      int64         `json:"customer_id" validate:"required,gt=0"`
	InvoiceDate     *time.Time    `json:"invoice_date,omitempty"`
	DueDate         *time.Time    `json:"due_date,omitempty"`
	DiscountPercent float64       `json:"discount_percent" validate:"gte=0,lte=100"`
	Notes           *string       `json:"notes,omitempty"`
	Items           []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ConvertQuotationRequest converts a DRAFT quotation into an invoice.
// Amounts and lines are copied verbatim; only the dates are new input.
type ConvertQuotationRequest struct {
	InvoiceDate *time.Time `json:"invoice_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// ListInvoicesRequest filters company-scoped invoice listings.
type ListInvoicesRequest struct {
	CompanyID  int64          `json:"-"`
	Status     *InvoiceStatus `json:"status,omitempty"`
	CustomerID *int64         `json:"customer_id,omitempty"`
	DateFrom   *time.Time     `json:"date_from,omitempty"`
	DateTo     *time.Time     `json:"date_to,omitempty"`
	Limit      int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int            `json:"offset" validate:"gte=0"`
}
