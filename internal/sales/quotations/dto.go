package quotations

import "time"

// ItemRequest is the caller-supplied shape of one quotation line. Price
// and tax are trusted from the request, unlike direct invoice creation.
type ItemRequest struct {
	ProductID   int64   `json:"product_id" validate:"required,gt=0"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	TaxRate     float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	Description *string `json:"description,omitempty"`
}

// CreateQuotationRequest creates a DRAFT quotation.
type CreateQuotationRequest struct {
	CompanyID       int64         `json:"-"`
	CustomerID      int64         `json:"customer_id" validate:"required,gt=0"`
	QuoteDate       *time.Time    `json:"quote_date,omitempty"`
	DiscountPercent float64       `json:"discount_percent" validate:"gte=0,lte=100"`
	DiscountReason  *string       `json:"discount_reason,omitempty"`
	Notes           *string       `json:"notes,omitempty"`
	Items           []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateQuotationRequest patches a DRAFT quotation. When Items is
// supplied the existing lines are fully replaced, never merged.
type UpdateQuotationRequest struct {
	CustomerID      *int64         `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	DiscountPercent *float64       `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	DiscountReason  *string        `json:"discount_reason,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	Items           *[]ItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// ListQuotationsRequest filters company-scoped quotation listings.
type ListQuotationsRequest struct {
	CompanyID  int64            `json:"-"`
	Status     *QuotationStatus `json:"status,omitempty"`
	CustomerID *int64           `json:"customer_id,omitempty"`
	DateFrom   *time.Time       `json:"date_from,omitempty"`
	DateTo     *time.Time       `json:"date_to,omitempty"`
	MinTotal   *float64         `json:"min_total,omitempty"`
	MaxTotal   *float64         `json:"max_total,omitempty"`
	Limit      int              `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int              `json:"offset" validate:"gte=0"`
}
