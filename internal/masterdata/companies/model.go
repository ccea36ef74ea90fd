package companies

import "time"

// Company is the tenant root. Every other entity is scoped to one company.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Mobile    *string   `json:"mobile,omitempty"`
	Email     *string   `json:"email,omitempty"`
	GSTNumber *string   `json:"gst_number,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
