package quotations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallyforge/tallyforge/internal/docnum"
	"github.com/tallyforge/tallyforge/internal/platform/db"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// Repository persists quotations. Create and Update write the header and
// all lines in a single transaction; Update replaces the line set.
type Repository interface {
	Get(ctx context.Context, id, companyID int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, error)
	Create(ctx context.Context, q *Quotation) (*Quotation, error)
	Update(ctx context.Context, q *Quotation) (*Quotation, error)
	SetStatus(ctx context.Context, id, companyID int64, status QuotationStatus) error
	SoftDelete(ctx context.Context, id, companyID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const quotationColumns = `id, number, company_id, customer_id, quote_date, status, discount_percent, discount_reason, notes, subtotal, tax_amount, total_before_discount, discount_amount, total_amount, invoice_id, deleted, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	var pct, sub, tax, tbd, disc, total pgtype.Numeric
	err := row.Scan(&q.ID, &q.Number, &q.CompanyID, &q.CustomerID, &q.QuoteDate, &q.Status,
		&pct, &q.DiscountReason, &q.Notes, &sub, &tax, &tbd, &disc, &total,
		&q.InvoiceID, &q.Deleted, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quotation: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	q.DiscountPercent = db.DecimalFromNumeric(pct)
	q.Subtotal = db.DecimalFromNumeric(sub)
	q.TaxAmount = db.DecimalFromNumeric(tax)
	q.TotalBeforeDiscount = db.DecimalFromNumeric(tbd)
	q.DiscountAmount = db.DecimalFromNumeric(disc)
	q.TotalAmount = db.DecimalFromNumeric(total)
	return &q, nil
}

func (r *repository) loadItems(ctx context.Context, dbtx db.DBTX, quotationID int64) ([]Item, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT id, quotation_id, product_id, description, quantity, unit_price, tax_rate, tax_amount, line_total
		FROM quotation_items WHERE quotation_id = $1 ORDER BY id
	`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var qty, price, rate, tax, total pgtype.Numeric
		if err := rows.Scan(&it.ID, &it.QuotationID, &it.ProductID, &it.Description,
			&qty, &price, &rate, &tax, &total); err != nil {
			return nil, err
		}
		it.Quantity = db.DecimalFromNumeric(qty)
		it.UnitPrice = db.DecimalFromNumeric(price)
		it.TaxRate = db.DecimalFromNumeric(rate)
		it.TaxAmount = db.DecimalFromNumeric(tax)
		it.LineTotal = db.DecimalFromNumeric(total)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id, companyID int64) (*Quotation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE id = $1 AND company_id = $2 AND NOT deleted`, id, companyID)
	q, err := scanQuotation(row)
	if err != nil {
		return nil, err
	}
	if q.Items, err = r.loadItems(ctx, r.pool, q.ID); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + quotationColumns + ` FROM quotations WHERE company_id = $1 AND NOT deleted`)
	args := []interface{}{req.CompanyID}

	add := func(clause string, v interface{}) {
		args = append(args, v)
		fmt.Fprintf(&sb, " AND "+clause, len(args))
	}
	if req.Status != nil {
		add("status = $%d", string(*req.Status))
	}
	if req.CustomerID != nil {
		add("customer_id = $%d", *req.CustomerID)
	}
	if req.DateFrom != nil {
		add("quote_date >= $%d", *req.DateFrom)
	}
	if req.DateTo != nil {
		add("quote_date <= $%d", *req.DateTo)
	}
	if req.MinTotal != nil {
		add("total_amount >= $%d", *req.MinTotal)
	}
	if req.MaxTotal != nil {
		add("total_amount <= $%d", *req.MaxTotal)
	}
	sb.WriteString(" ORDER BY quote_date DESC, id DESC")
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", limit, req.Offset)

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, quotationID int64, items []Item) error {
	for _, it := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO quotation_items (quotation_id, product_id, description, quantity, unit_price, tax_rate, tax_amount, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, quotationID, it.ProductID, it.Description,
			db.NumericFromDecimal(it.Quantity), db.NumericFromDecimal(it.UnitPrice),
			db.NumericFromDecimal(it.TaxRate), db.NumericFromDecimal(it.TaxAmount),
			db.NumericFromDecimal(it.LineTotal))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Create(ctx context.Context, q *Quotation) (*Quotation, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := docnum.Next(ctx, tx, docnum.KindQuotation, q.CompanyID, q.QuoteDate)
		if err != nil {
			return err
		}
		q.Number = number

		err = tx.QueryRow(ctx, `
			INSERT INTO quotations (number, company_id, customer_id, quote_date, status, discount_percent, discount_reason, notes, subtotal, tax_amount, total_before_discount, discount_amount, total_amount, deleted, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, FALSE, NOW(), NOW())
			RETURNING id
		`, q.Number, q.CompanyID, q.CustomerID, q.QuoteDate, q.Status,
			db.NumericFromDecimal(q.DiscountPercent), q.DiscountReason, q.Notes,
			db.NumericFromDecimal(q.Subtotal), db.NumericFromDecimal(q.TaxAmount),
			db.NumericFromDecimal(q.TotalBeforeDiscount), db.NumericFromDecimal(q.DiscountAmount),
			db.NumericFromDecimal(q.TotalAmount)).Scan(&id)
		if err != nil {
			return err
		}
		return insertItems(ctx, tx, id, q.Items)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id, q.CompanyID)
}

func (r *repository) Update(ctx context.Context, q *Quotation) (*Quotation, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE quotations
			SET customer_id = $3, discount_percent = $4, discount_reason = $5, notes = $6,
			    subtotal = $7, tax_amount = $8, total_before_discount = $9, discount_amount = $10, total_amount = $11,
			    updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND NOT deleted
		`, q.ID, q.CompanyID, q.CustomerID,
			db.NumericFromDecimal(q.DiscountPercent), q.DiscountReason, q.Notes,
			db.NumericFromDecimal(q.Subtotal), db.NumericFromDecimal(q.TaxAmount),
			db.NumericFromDecimal(q.TotalBeforeDiscount), db.NumericFromDecimal(q.DiscountAmount),
			db.NumericFromDecimal(q.TotalAmount))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("quotation: %w", shared.ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id = $1`, q.ID); err != nil {
			return err
		}
		return insertItems(ctx, tx, q.ID, q.Items)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, q.ID, q.CompanyID)
}

func (r *repository) SetStatus(ctx context.Context, id, companyID int64, status QuotationStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotations SET status = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND NOT deleted
	`, id, companyID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation: %w", shared.ErrNotFound)
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id, companyID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotations SET deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND NOT deleted
	`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation: %w", shared.ErrNotFound)
	}
	return nil
}
