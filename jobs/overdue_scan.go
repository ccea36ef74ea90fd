package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverdueScanJob flips PENDING invoices that are past due with money
// still outstanding to OVERDUE. The transition is one-way; settlements
// alone move an invoice out of OVERDUE, and only to PAID.
type OverdueScanJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewOverdueScanJob initialises the overdue scan handler.
func NewOverdueScanJob(pool *pgxpool.Pool, logger *slog.Logger) *OverdueScanJob {
	return &OverdueScanJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one scan.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = j.clock()
	}

	tag, err := j.Pool.Exec(ctx, `
		UPDATE invoices SET status = 'OVERDUE', updated_at = NOW()
		WHERE status = 'PENDING' AND due_date < $1 AND outstanding_amount > 0
	`, asOf)
	if err != nil {
		j.Logger.Error("overdue scan failed", slog.Any("error", err))
		return err
	}

	j.Logger.Info("overdue scan complete",
		slog.Time("as_of", asOf),
		slog.Int64("marked", tag.RowsAffected()))
	return nil
}
