package challans

import "time"

// Challan is a delivery note accompanying goods out of the warehouse.
// Challans carry no money amounts and never touch stock; the invoice
// they optionally reference already accounted for both.
type Challan struct {
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	CompanyID   int64     `json:"company_id"`
	CustomerID  int64     `json:"customer_id"`
	InvoiceID   *int64    `json:"invoice_id,omitempty"`
	ChallanDate time.Time `json:"challan_date"`
	VehicleNo   *string   `json:"vehicle_no,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	Items       []Item    `json:"items,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Item is one delivered line.
type Item struct {
	ID          int64   `json:"id"`
	ChallanID   int64   `json:"challan_id"`
	ProductID   int64   `json:"product_id"`
	Description *string `json:"description,omitempty"`
	Quantity    int64   `json:"quantity"`
}
