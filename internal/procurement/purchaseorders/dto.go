package purchaseorders

import "time"

// ItemRequest names a product and a whole-unit quantity to purchase.
type ItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

// CreatePurchaseOrderRequest creates a purchase order and books the
// stock in.
type CreatePurchaseOrderRequest struct {
	CompanyID    int64         `json:"-"`
	SupplierName *string       `json:"supplier_name,omitempty" validate:"omitempty,max=200"`
	OrderDate    *time.Time    `json:"order_date,omitempty"`
	Notes        *string       `json:"notes,omitempty"`
	Items        []ItemRequest `json:"items" validate:"required,min=1,dive"`
}
