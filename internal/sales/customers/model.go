package customers

import "time"

// CustomerType differentiates retail and business customers.
type CustomerType string

const (
	TypeRetail   CustomerType = "RETAIL"
	TypeBusiness CustomerType = "BUSINESS"
)

// Customer belongs to exactly one company.
type Customer struct {
	ID        int64        `json:"id"`
	CompanyID int64        `json:"company_id"`
	Name      string       `json:"name"`
	Email     *string      `json:"email,omitempty"`
	Mobile    *string      `json:"mobile,omitempty"`
	Address   *string      `json:"address,omitempty"`
	GSTNumber *string      `json:"gst_number,omitempty"`
	Type      CustomerType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
