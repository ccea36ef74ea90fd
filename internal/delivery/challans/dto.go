package challans

import "time"

// ItemRequest names one delivered product line.
type ItemRequest struct {
	ProductID   int64   `json:"product_id" validate:"required,gt=0"`
	Quantity    int64   `json:"quantity" validate:"required,gt=0"`
	Description *string `json:"description,omitempty"`
}

// IssueChallanRequest issues a delivery challan.
type IssueChallanRequest struct {
	CompanyID   int64         `json:"-"`
	CustomerID  int64         `json:"customer_id" validate:"required,gt=0"`
	InvoiceID   *int64        `json:"invoice_id,omitempty" validate:"omitempty,gt=0"`
	ChallanDate *time.Time    `json:"challan_date,omitempty"`
	VehicleNo   *string       `json:"vehicle_no,omitempty" validate:"omitempty,max=50"`
	Notes       *string       `json:"notes,omitempty"`
	Items       []ItemRequest `json:"items" validate:"required,min=1,dive"`
}
