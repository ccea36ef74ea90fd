package settlements

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates accepted payment instruments.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodDebitCard    PaymentMethod = "DEBIT_CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodUPI          PaymentMethod = "UPI"
	MethodCheque       PaymentMethod = "CHEQUE"
)

// DefaultMethod applies when the caller does not name an instrument.
const DefaultMethod = MethodCash

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCreditCard, MethodDebitCard, MethodBankTransfer, MethodUPI, MethodCheque:
		return true
	}
	return false
}

// Settlement records one payment against an invoice. Settlements are
// append-only; corrections are new settlements, never edits.
type Settlement struct {
	ID          int64           `json:"id"`
	CompanyID   int64           `json:"company_id"`
	InvoiceID   int64           `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      PaymentMethod   `json:"method"`
	PaymentDate time.Time       `json:"payment_date"`
	Reference   *string         `json:"reference,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
