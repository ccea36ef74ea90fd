package purchaseorders

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder records goods bought into stock. Creating one increases
// product stock immediately at the product's current cost price; soft
// deleting reverses the stock movement.
type PurchaseOrder struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	CompanyID    int64           `json:"company_id"`
	SupplierName *string         `json:"supplier_name,omitempty"`
	OrderDate    time.Time       `json:"order_date"`
	Notes        *string         `json:"notes,omitempty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Deleted      bool            `json:"-"`
	Items        []Item          `json:"items,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Item is one purchased line. UnitCost is frozen from the product's cost
// price at order time.
type Item struct {
	ID              int64           `json:"id"`
	PurchaseOrderID int64           `json:"purchase_order_id"`
	ProductID       int64           `json:"product_id"`
	Quantity        int64           `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	LineTotal       decimal.Decimal `json:"line_total"`
}
