package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallyforge/tallyforge/internal/platform/db"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// Repository provides access to the product catalog, scoped by company.
type Repository interface {
	GetActive(ctx context.Context, id, companyID int64) (*Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Update(ctx context.Context, p Product) (*Product, error)
	Deactivate(ctx context.Context, id, companyID int64) error
	List(ctx context.Context, companyID int64) ([]Product, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, company_id, name, barcode, category, cost_price, selling_price, tax_rate, stock_quantity, product_type, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var cost, selling, tax pgtype.Numeric
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Barcode, &p.Category,
		&cost, &selling, &tax, &p.StockQuantity, &p.Type, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	p.CostPrice = db.DecimalFromNumeric(cost)
	p.SellingPrice = db.DecimalFromNumeric(selling)
	p.TaxRate = db.DecimalFromNumeric(tax)
	return &p, nil
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("product: %w", shared.ErrDuplicate)
	}
	return err
}

func (r *repository) GetActive(ctx context.Context, id, companyID int64) (*Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND company_id = $2 AND active`, id, companyID)
	return scanProduct(row)
}

func (r *repository) Create(ctx context.Context, p Product) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (company_id, name, barcode, category, cost_price, selling_price, tax_rate, stock_quantity, product_type, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, NOW(), NOW())
		RETURNING `+productColumns,
		p.CompanyID, p.Name, p.Barcode, p.Category,
		db.NumericFromDecimal(p.CostPrice), db.NumericFromDecimal(p.SellingPrice), db.NumericFromDecimal(p.TaxRate),
		p.StockQuantity, p.Type)
	created, err := scanProduct(row)
	if err != nil {
		return nil, mapDuplicate(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, p Product) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $3, barcode = $4, category = $5, cost_price = $6, selling_price = $7, tax_rate = $8, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND active
		RETURNING `+productColumns,
		p.ID, p.CompanyID, p.Name, p.Barcode, p.Category,
		db.NumericFromDecimal(p.CostPrice), db.NumericFromDecimal(p.SellingPrice), db.NumericFromDecimal(p.TaxRate))
	updated, err := scanProduct(row)
	if err != nil {
		return nil, mapDuplicate(err)
	}
	return updated, nil
}

func (r *repository) Deactivate(ctx context.Context, id, companyID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET active = FALSE, updated_at = NOW() WHERE id = $1 AND company_id = $2 AND active`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	return nil
}

func (r *repository) List(ctx context.Context, companyID int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE company_id = $1 AND active ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		var cost, selling, tax pgtype.Numeric
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Barcode, &p.Category,
			&cost, &selling, &tax, &p.StockQuantity, &p.Type, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.CostPrice = db.DecimalFromNumeric(cost)
		p.SellingPrice = db.DecimalFromNumeric(selling)
		p.TaxRate = db.DecimalFromNumeric(tax)
		out = append(out, p)
	}
	return out, rows.Err()
}
