package companies

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallyforge/tallyforge/internal/shared"
)

// Repository provides access to companies.
type Repository interface {
	GetActive(ctx context.Context, id int64) (*Company, error)
	Create(ctx context.Context, c Company) (*Company, error)
	Update(ctx context.Context, c Company) (*Company, error)
	List(ctx context.Context) ([]Company, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const companyColumns = `id, name, address, mobile, email, gst_number, active, created_at, updated_at`

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Mobile, &c.Email, &c.GSTNumber, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetActive(ctx context.Context, id int64) (*Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1 AND active`, id)
	return scanCompany(row)
}

func (r *repository) Create(ctx context.Context, c Company) (*Company, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO companies (name, address, mobile, email, gst_number, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		RETURNING `+companyColumns,
		c.Name, c.Address, c.Mobile, c.Email, c.GSTNumber)
	return scanCompany(row)
}

func (r *repository) Update(ctx context.Context, c Company) (*Company, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE companies
		SET name = $2, address = $3, mobile = $4, email = $5, gst_number = $6, active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+companyColumns,
		c.ID, c.Name, c.Address, c.Mobile, c.Email, c.GSTNumber, c.Active)
	return scanCompany(row)
}

func (r *repository) List(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Mobile, &c.Email, &c.GSTNumber, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
