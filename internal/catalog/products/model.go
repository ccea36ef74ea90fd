package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType distinguishes stocked goods from services.
type ProductType string

const (
	TypeProduct ProductType = "PRODUCT"
	TypeService ProductType = "SERVICE"
)

// Product is a sellable good or service owned by one company.
// StockQuantity is only meaningful for TypeProduct; services carry nil.
type Product struct {
	ID            int64           `json:"id"`
	CompanyID     int64           `json:"company_id"`
	Name          string          `json:"name"`
	Barcode       *string         `json:"barcode,omitempty"`
	Category      string          `json:"category"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	StockQuantity *int64          `json:"stock_quantity,omitempty"`
	Type          ProductType     `json:"type"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsStocked reports whether this product participates in inventory checks.
func (p *Product) IsStocked() bool {
	return p.Type == TypeProduct
}
