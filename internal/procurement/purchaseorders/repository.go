package purchaseorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallyforge/tallyforge/internal/docnum"
	"github.com/tallyforge/tallyforge/internal/inventory"
	"github.com/tallyforge/tallyforge/internal/platform/db"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// TxRepository is the write surface of one purchase order transaction.
type TxRepository interface {
	NextNumber(ctx context.Context, companyID int64, date time.Time) (string, error)
	InsertOrder(ctx context.Context, po *PurchaseOrder) (int64, error)
	GetOrderForUpdate(ctx context.Context, id, companyID int64) (*PurchaseOrder, error)
	MarkDeleted(ctx context.Context, id, companyID int64) error
	Stock() inventory.Store
}

// Repository persists purchase orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	Get(ctx context.Context, id, companyID int64) (*PurchaseOrder, error)
	ListRecent(ctx context.Context, companyID int64, limit int) ([]PurchaseOrder, error)
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

func (t *txRepository) NextNumber(ctx context.Context, companyID int64, date time.Time) (string, error) {
	return docnum.Next(ctx, t.tx, docnum.KindPurchaseOrder, companyID, date)
}

func (t *txRepository) InsertOrder(ctx context.Context, po *PurchaseOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (number, company_id, supplier_name, order_date, notes, total_amount, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())
		RETURNING id
	`, po.Number, po.CompanyID, po.SupplierName, po.OrderDate, po.Notes,
		db.NumericFromDecimal(po.TotalAmount)).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, it := range po.Items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO purchase_order_items (purchase_order_id, product_id, quantity, unit_cost, line_total)
			VALUES ($1, $2, $3, $4, $5)
		`, id, it.ProductID, it.Quantity, db.NumericFromDecimal(it.UnitCost), db.NumericFromDecimal(it.LineTotal))
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

const orderColumns = `id, number, company_id, supplier_name, order_date, notes, total_amount, deleted, created_at, updated_at`

func scanOrder(row pgx.Row) (*PurchaseOrder, error) {
	var po PurchaseOrder
	var total pgtype.Numeric
	err := row.Scan(&po.ID, &po.Number, &po.CompanyID, &po.SupplierName, &po.OrderDate,
		&po.Notes, &total, &po.Deleted, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase order: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	po.TotalAmount = db.DecimalFromNumeric(total)
	return &po, nil
}

func loadItems(ctx context.Context, dbtx db.DBTX, orderID int64) ([]Item, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT id, purchase_order_id, product_id, quantity, unit_cost, line_total
		FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var cost, total pgtype.Numeric
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.Quantity, &cost, &total); err != nil {
			return nil, err
		}
		it.UnitCost = db.DecimalFromNumeric(cost)
		it.LineTotal = db.DecimalFromNumeric(total)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (t *txRepository) GetOrderForUpdate(ctx context.Context, id, companyID int64) (*PurchaseOrder, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1 AND company_id = $2 AND NOT deleted FOR UPDATE`,
		id, companyID)
	po, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if po.Items, err = loadItems(ctx, t.tx, po.ID); err != nil {
		return nil, err
	}
	return po, nil
}

func (t *txRepository) MarkDeleted(ctx context.Context, id, companyID int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE purchase_orders SET deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND NOT deleted
	`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase order: %w", shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id, companyID int64) (*PurchaseOrder, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1 AND company_id = $2 AND NOT deleted`, id, companyID)
	po, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if po.Items, err = loadItems(ctx, r.pool, po.ID); err != nil {
		return nil, err
	}
	return po, nil
}

func (r *repository) ListRecent(ctx context.Context, companyID int64, limit int) ([]PurchaseOrder, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders WHERE company_id = $1 AND NOT deleted ORDER BY order_date DESC, id DESC LIMIT $2`,
		companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *po)
	}
	return out, rows.Err()
}
