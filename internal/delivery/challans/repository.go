package challans

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallyforge/tallyforge/internal/docnum"
	"github.com/tallyforge/tallyforge/internal/platform/db"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// Repository persists delivery challans.
type Repository interface {
	Create(ctx context.Context, c *Challan) (*Challan, error)
	Get(ctx context.Context, id, companyID int64) (*Challan, error)
	List(ctx context.Context, companyID int64, limit int) ([]Challan, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const challanColumns = `id, number, company_id, customer_id, invoice_id, challan_date, vehicle_no, notes, created_at`

func scanChallan(row pgx.Row) (*Challan, error) {
	var c Challan
	err := row.Scan(&c.ID, &c.Number, &c.CompanyID, &c.CustomerID, &c.InvoiceID,
		&c.ChallanDate, &c.VehicleNo, &c.Notes, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challan: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Create(ctx context.Context, c *Challan) (*Challan, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := docnum.Next(ctx, tx, docnum.KindChallan, c.CompanyID, c.ChallanDate)
		if err != nil {
			return err
		}
		c.Number = number

		err = tx.QueryRow(ctx, `
			INSERT INTO delivery_challans (number, company_id, customer_id, invoice_id, challan_date, vehicle_no, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			RETURNING id
		`, c.Number, c.CompanyID, c.CustomerID, c.InvoiceID, c.ChallanDate, c.VehicleNo, c.Notes).Scan(&id)
		if err != nil {
			return err
		}
		for _, it := range c.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO delivery_challan_items (challan_id, product_id, description, quantity)
				VALUES ($1, $2, $3, $4)
			`, id, it.ProductID, it.Description, it.Quantity)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id, c.CompanyID)
}

func (r *repository) Get(ctx context.Context, id, companyID int64) (*Challan, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+challanColumns+` FROM delivery_challans WHERE id = $1 AND company_id = $2`, id, companyID)
	c, err := scanChallan(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, challan_id, product_id, description, quantity
		FROM delivery_challan_items WHERE challan_id = $1 ORDER BY id
	`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ChallanID, &it.ProductID, &it.Description, &it.Quantity); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (r *repository) List(ctx context.Context, companyID int64, limit int) ([]Challan, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+challanColumns+` FROM delivery_challans WHERE company_id = $1 ORDER BY challan_date DESC, id DESC LIMIT $2`,
		companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Challan
	for rows.Next() {
		c, err := scanChallan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
