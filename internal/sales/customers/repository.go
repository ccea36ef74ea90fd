package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallyforge/tallyforge/internal/shared"
)

// Repository provides access to customers, always scoped by company.
type Repository interface {
	Get(ctx context.Context, id, companyID int64) (*Customer, error)
	Create(ctx context.Context, c Customer) (*Customer, error)
	Update(ctx context.Context, c Customer) (*Customer, error)
	List(ctx context.Context, companyID int64) ([]Customer, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, company_id, name, email, mobile, address, gst_number, customer_type, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Mobile, &c.Address, &c.GSTNumber, &c.Type, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id, companyID int64) (*Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND company_id = $2`, id, companyID)
	return scanCustomer(row)
}

func (r *repository) Create(ctx context.Context, c Customer) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (company_id, name, email, mobile, address, gst_number, customer_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+customerColumns,
		c.CompanyID, c.Name, c.Email, c.Mobile, c.Address, c.GSTNumber, c.Type)
	return scanCustomer(row)
}

func (r *repository) Update(ctx context.Context, c Customer) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $3, email = $4, mobile = $5, address = $6, gst_number = $7, customer_type = $8, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING `+customerColumns,
		c.ID, c.CompanyID, c.Name, c.Email, c.Mobile, c.Address, c.GSTNumber, c.Type)
	return scanCustomer(row)
}

func (r *repository) List(ctx context.Context, companyID int64) ([]Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Mobile, &c.Address, &c.GSTNumber, &c.Type, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
