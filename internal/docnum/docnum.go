// Package docnum issues document numbers. Sequential kinds draw from a
// per-company, per-period database sequence; invoice numbers are opaque
// UUID tokens matching the behaviour of the settlement ledger they feed.
package docnum

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Kind identifies a sequentially numbered document type.
type Kind string

const (
	KindQuotation     Kind = "QT"
	KindPurchaseOrder Kind = "PO"
	KindChallan       Kind = "CH"
)

// Execer is the minimal query surface needed to advance a sequence. Both
// pgxpool.Pool and pgx.Tx satisfy it, so numbers can be drawn inside the
// caller's transaction.
type Execer interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Next advances the (company, kind, period) sequence and formats the
// document number as <KIND>-<YYMM>-<seq>. The upsert is atomic, so
// concurrent callers never observe the same value.
func Next(ctx context.Context, db Execer, kind Kind, companyID int64, date time.Time) (string, error) {
	var seq int64
	period := date.Format("200601")
	err := db.QueryRow(ctx, `
		INSERT INTO document_sequences (company_id, doc_type, period, seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, companyID, string(kind), period).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("docnum: next %s: %w", kind, err)
	}
	return fmt.Sprintf("%s-%s-%04d", kind, date.Format("0601"), seq), nil
}

// InvoiceToken returns a globally unique opaque invoice number. Invoices
// deliberately do not share the sequential scheme of the other documents;
// the reference behaviour is preserved here.
func InvoiceToken() string {
	return "INV-" + uuid.NewString()
}
