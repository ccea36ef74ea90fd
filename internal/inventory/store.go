package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tallyforge/tallyforge/internal/catalog/products"
	"github.com/tallyforge/tallyforge/internal/platform/db"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// Store serializes stock reads and writes for one transaction. GetForUpdate
// must lock the product row so a concurrent check-then-reduce sequence
// against the same product cannot interleave and oversell.
type Store interface {
	GetForUpdate(ctx context.Context, productID, companyID int64) (*products.Product, error)
	UpdateStock(ctx context.Context, productID, companyID, stock int64) error
}

type txStore struct {
	tx db.DBTX
}

// NewTxStore binds a Store to the caller's transaction.
func NewTxStore(tx db.DBTX) Store {
	return &txStore{tx: tx}
}

func (s *txStore) GetForUpdate(ctx context.Context, productID, companyID int64) (*products.Product, error) {
	row := s.tx.QueryRow(ctx, `
		SELECT id, company_id, name, barcode, category, cost_price, selling_price, tax_rate, stock_quantity, product_type, active, created_at, updated_at
		FROM products
		WHERE id = $1 AND company_id = $2 AND active
		FOR UPDATE
	`, productID, companyID)

	var p products.Product
	var cost, selling, tax pgtype.Numeric
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Barcode, &p.Category,
		&cost, &selling, &tax, &p.StockQuantity, &p.Type, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", productID, shared.ErrNotFound)
		}
		return nil, err
	}
	p.CostPrice = db.DecimalFromNumeric(cost)
	p.SellingPrice = db.DecimalFromNumeric(selling)
	p.TaxRate = db.DecimalFromNumeric(tax)
	return &p, nil
}

func (s *txStore) UpdateStock(ctx context.Context, productID, companyID, stock int64) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE products SET stock_quantity = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, productID, companyID, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", productID, shared.ErrNotFound)
	}
	return nil
}
