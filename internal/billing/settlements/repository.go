package settlements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tallyforge/tallyforge/internal/billing/invoices"
	"github.com/tallyforge/tallyforge/internal/platform/db"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// TxRepository is the write surface of one settlement transaction. The
// invoice row is locked for the duration, so two concurrent payments
// against the same invoice serialize instead of double-counting.
type TxRepository interface {
	GetInvoiceForUpdate(ctx context.Context, invoiceID, companyID int64) (*invoices.Invoice, error)
	InsertSettlement(ctx context.Context, s *Settlement) (int64, error)
	UpdateInvoiceSettlement(ctx context.Context, invoiceID int64, paid, outstanding decimal.Decimal, status invoices.InvoiceStatus) error
}

// Repository persists settlements and answers collection queries.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	Get(ctx context.Context, id, companyID int64) (*Settlement, error)
	List(ctx context.Context, req ListSettlementsRequest) ([]Settlement, error)
	TotalCollected(ctx context.Context, companyID int64, from, to *time.Time) (decimal.Decimal, error)
	TotalsByMethod(ctx context.Context, companyID int64, from, to *time.Time) ([]MethodTotal, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (t *txRepository) GetInvoiceForUpdate(ctx context.Context, invoiceID, companyID int64) (*invoices.Invoice, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, number, company_id, customer_id, invoice_date, due_date, status, total_amount, paid_amount, outstanding_amount
		FROM invoices
		WHERE id = $1 AND company_id = $2
		FOR UPDATE
	`, invoiceID, companyID)

	var inv invoices.Invoice
	var total, paid, out pgtype.Numeric
	err := row.Scan(&inv.ID, &inv.Number, &inv.CompanyID, &inv.CustomerID,
		&inv.InvoiceDate, &inv.DueDate, &inv.Status, &total, &paid, &out)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	inv.TotalAmount = db.DecimalFromNumeric(total)
	inv.PaidAmount = db.DecimalFromNumeric(paid)
	inv.OutstandingAmount = db.DecimalFromNumeric(out)
	return &inv, nil
}

func (t *txRepository) InsertSettlement(ctx context.Context, s *Settlement) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO settlements (company_id, invoice_id, amount, method, payment_date, reference, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id
	`, s.CompanyID, s.InvoiceID, db.NumericFromDecimal(s.Amount), s.Method, s.PaymentDate, s.Reference, s.Notes).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateInvoiceSettlement(ctx context.Context, invoiceID int64, paid, outstanding decimal.Decimal, status invoices.InvoiceStatus) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE invoices SET paid_amount = $2, outstanding_amount = $3, status = $4, updated_at = NOW()
		WHERE id = $1
	`, invoiceID, db.NumericFromDecimal(paid), db.NumericFromDecimal(outstanding), status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice: %w", shared.ErrNotFound)
	}
	return nil
}

const settlementColumns = `id, company_id, invoice_id, amount, method, payment_date, reference, notes, created_at`

func scanSettlement(row pgx.Row) (*Settlement, error) {
	var s Settlement
	var amount pgtype.Numeric
	err := row.Scan(&s.ID, &s.CompanyID, &s.InvoiceID, &amount, &s.Method, &s.PaymentDate, &s.Reference, &s.Notes, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("settlement: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	s.Amount = db.DecimalFromNumeric(amount)
	return &s, nil
}

func (r *repository) Get(ctx context.Context, id, companyID int64) (*Settlement, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = $1 AND company_id = $2`, id, companyID)
	return scanSettlement(row)
}

func (r *repository) List(ctx context.Context, req ListSettlementsRequest) ([]Settlement, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + settlementColumns + ` FROM settlements WHERE company_id = $1`)
	args := []interface{}{req.CompanyID}

	add := func(clause string, v interface{}) {
		args = append(args, v)
		fmt.Fprintf(&sb, " AND "+clause, len(args))
	}
	if req.InvoiceID != nil {
		add("invoice_id = $%d", *req.InvoiceID)
	}
	if req.Method != nil {
		add("method = $%d", string(*req.Method))
	}
	if req.DateFrom != nil {
		add("payment_date >= $%d", *req.DateFrom)
	}
	if req.DateTo != nil {
		add("payment_date <= $%d", *req.DateTo)
	}
	sb.WriteString(" ORDER BY payment_date DESC, id DESC")
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

	var out []Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func dateRange(sb *strings.Builder, args *[]interface{}, from, to *time.Time) {
	if from != nil {
		*args = append(*args, *from)
		fmt.Fprintf(sb, " AND payment_date >= $%d", len(*args))
	}
	if to != nil {
		*args = append(*args, *to)
		fmt.Fprintf(sb, " AND payment_date <= $%d", len(*args))
	}
}

func (r *repository) TotalCollected(ctx context.Context, companyID int64, from, to *time.Time) (decimal.Decimal, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT COALESCE(SUM(amount), 0) FROM settlements WHERE company_id = $1`)
	args := []interface{}{companyID}
	dateRange(&sb, &args, from, to)

	var total pgtype.Numeric
	if err := r.pool.QueryRow(ctx, sb.String(), args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return db.DecimalFromNumeric(total), nil
}

func (r *repository) TotalsByMethod(ctx context.Context, companyID int64, from, to *time.Time) ([]MethodTotal, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT method, COALESCE(SUM(amount), 0) FROM settlements WHERE company_id = $1`)
	args := []interface{}{companyID}
	dateRange(&sb, &args, from, to)
	sb.WriteString(" GROUP BY method ORDER BY method")

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MethodTotal
	for rows.Next() {
		var mt MethodTotal
		var total pgtype.Numeric
		if err := rows.Scan(&mt.Method, &total); err != nil {
			return nil, err
		}
		mt.Total = db.DecimalFromNumeric(total)
		out = append(out, mt)
	}
	return out, rows.Err()
}
