package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the entity is absent or not owned by the requesting company.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique constraint was violated within a company.
	ErrDuplicate = errors.New("duplicate resource")
)

// BusinessRuleError carries a human-readable reason for a rejected operation.
type BusinessRuleError struct {
	Reason string
}

func (e *BusinessRuleError) Error() string {
	return e.Reason
}

// BusinessRule builds a BusinessRuleError with a formatted reason.
func BusinessRule(format string, args ...any) error {
	return &BusinessRuleError{Reason: fmt.Sprintf(format, args...)}
}

// ShortItem describes one line that failed the stock sufficiency check.
type ShortItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
}

// InsufficientStockError lists every short line of a request, not just the first.
type InsufficientStockError struct {
	Items []ShortItem
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("product %q: requested %d, available %d", it.ProductName, it.Requested, it.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}
