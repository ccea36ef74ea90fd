package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallyforge/tallyforge/internal/inventory"
	"github.com/tallyforge/tallyforge/internal/platform/db"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// TxRepository is the write surface available inside one invoice
// transaction. Stock gives row-locked access to product quantities, so
// the stock check and the reduction commit or roll back together with
// the invoice itself.
type TxRepository interface {
	InsertInvoice(ctx context.Context, inv *Invoice) (int64, error)
	MarkQuotationConverted(ctx context.Context, quotationID, companyID, invoiceID int64) error
	Stock() inventory.Store
}

// Repository persists invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	Get(ctx context.Context, id, companyID int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx    pgx.Tx
	stock inventory.Store
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, stock: inventory.NewTxStore(tx)})
	})
}

func (t *txRepository) Stock() inventory.Store { return t.stock }

func (t *txRepository) InsertInvoice(ctx context.Context, inv *Invoice) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invoices (number, company_id, customer_id, quotation_id, invoice_date, due_date, status, discount_percent, subtotal, tax_amount, total_before_discount, discount_amount, total_amount, paid_amount, outstanding_amount, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id
	`, inv.Number, inv.CompanyID, inv.CustomerID, inv.QuotationID, inv.InvoiceDate, inv.DueDate, inv.Status,
		db.NumericFromDecimal(inv.DiscountPercent), db.NumericFromDecimal(inv.Subtotal),
		db.NumericFromDecimal(inv.TaxAmount), db.NumericFromDecimal(inv.TotalBeforeDiscount),
		db.NumericFromDecimal(inv.DiscountAmount), db.NumericFromDecimal(inv.TotalAmount),
		db.NumericFromDecimal(inv.PaidAmount), db.NumericFromDecimal(inv.OutstandingAmount),
		inv.Notes).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, it := range inv.Items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO invoice_items (invoice_id, product_id, description, quantity, unit_price, tax_rate, tax_amount, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, it.ProductID, it.Description,
			db.NumericFromDecimal(it.Quantity), db.NumericFromDecimal(it.UnitPrice),
			db.NumericFromDecimal(it.TaxRate), db.NumericFromDecimal(it.TaxAmount),
			db.NumericFromDecimal(it.LineTotal))
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (t *txRepository) MarkQuotationConverted(ctx context.Context, quotationID, companyID, invoiceID int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE quotations SET status = 'CONVERTED', invoice_id = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND NOT deleted AND status = 'DRAFT'
	`, quotationID, companyID, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Zero rows means another transaction converted or deleted the
		// quotation after our read. Same violation as the pre-check.
		return shared.BusinessRule("quotation %d is no longer in DRAFT status", quotationID)
	}
	return nil
}

const invoiceColumns = `id, number, company_id, customer_id, quotation_id, invoice_date, due_date, status, discount_percent, subtotal, tax_amount, total_before_discount, discount_amount, total_amount, paid_amount, outstanding_amount, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var pct, sub, tax, tbd, disc, total, paid, out pgtype.Numeric
	err := row.Scan(&inv.ID, &inv.Number, &inv.CompanyID, &inv.CustomerID, &inv.QuotationID,
		&inv.InvoiceDate, &inv.DueDate, &inv.Status,
		&pct, &sub, &tax, &tbd, &disc, &total, &paid, &out,
		&inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	inv.DiscountPercent = db.DecimalFromNumeric(pct)
	inv.Subtotal = db.DecimalFromNumeric(sub)
	inv.TaxAmount = db.DecimalFromNumeric(tax)
	inv.TotalBeforeDiscount = db.DecimalFromNumeric(tbd)
	inv.DiscountAmount = db.DecimalFromNumeric(disc)
	inv.TotalAmount = db.DecimalFromNumeric(total)
	inv.PaidAmount = db.DecimalFromNumeric(paid)
	inv.OutstandingAmount = db.DecimalFromNumeric(out)
	return &inv, nil
}

func (r *repository) Get(ctx context.Context, id, companyID int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 AND company_id = $2`, id, companyID)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, product_id, description, quantity, unit_price, tax_rate, tax_amount, line_total
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id
	`, inv.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		var qty, price, rate, taxAmt, lineTotal pgtype.Numeric
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.Description,
			&qty, &price, &rate, &taxAmt, &lineTotal); err != nil {
			return nil, err
		}
		it.Quantity = db.DecimalFromNumeric(qty)
		it.UnitPrice = db.DecimalFromNumeric(price)
		it.TaxRate = db.DecimalFromNumeric(rate)
		it.TaxAmount = db.DecimalFromNumeric(taxAmt)
		it.LineTotal = db.DecimalFromNumeric(lineTotal)
		inv.Items = append(inv.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1`)
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
		add("invoice_date >= $%d", *req.DateFrom)
	}
	if req.DateTo != nil {
		add("invoice_date <= $%d", *req.DateTo)
	}
	sb.WriteString(" ORDER BY invoice_date DESC, id DESC")
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

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}
