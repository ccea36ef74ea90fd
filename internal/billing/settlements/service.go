package settlements

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyforge/tallyforge/internal/billing/invoices"
	"github.com/tallyforge/tallyforge/internal/money"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// Service applies payments to invoices. The invoice row is locked while
// its settlement columns move, so paid plus outstanding always equals
// the invoice total.
type Service struct {
	logger *slog.Logger
	repo   Repository
	cache  *SummaryCache
}

// NewService builds Service. The cache may be nil.
func NewService(logger *slog.Logger, repo Repository) *Service {
	return &Service{logger: logger, repo: repo}
}

// WithCache attaches a summary cache.
func (s *Service) WithCache(cache *SummaryCache) *Service {
	s.cache = cache
	return s
}

// ApplyPayment records a payment and advances the invoice's settlement
// state. Overpayment is rejected, never clamped. An invoice flips to
// PAID exactly when outstanding reaches zero; a partial payment on an
// OVERDUE invoice leaves it OVERDUE.
func (s *Service) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*Settlement, error) {
	amount := money.Round2(decimal.NewFromFloat(req.Amount))
	if !amount.IsPositive() {
		return nil, shared.BusinessRule("payment amount must be positive")
	}
	method := DefaultMethod
	if req.Method != "" {
		method = PaymentMethod(req.Method)
		if !method.Valid() {
			return nil, shared.BusinessRule("unknown payment method %q", req.Method)
		}
	}
	paymentDate := time.Now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	var created *Settlement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, req.InvoiceID, req.CompanyID)
		if err != nil {
			return err
		}
		if !inv.OutstandingAmount.IsPositive() {
			return shared.BusinessRule("invoice %s is already fully paid", inv.Number)
		}
		if amount.GreaterThan(inv.OutstandingAmount) {
			return shared.BusinessRule("payment of %s exceeds outstanding amount %s",
				amount.StringFixed(2), inv.OutstandingAmount.StringFixed(2))
		}

		paid := inv.PaidAmount.Add(amount)
		outstanding := inv.TotalAmount.Sub(paid)
		status := inv.Status
		if outstanding.IsZero() {
			status = invoices.StatusPaid
		}
		if err := tx.UpdateInvoiceSettlement(ctx, inv.ID, paid, outstanding, status); err != nil {
			return err
		}

		settlement := &Settlement{
			CompanyID:   req.CompanyID,
			InvoiceID:   inv.ID,
			Amount:      amount,
			Method:      method,
			PaymentDate: paymentDate,
			Reference:   req.Reference,
			Notes:       req.Notes,
		}
		id, err := tx.InsertSettlement(ctx, settlement)
		if err != nil {
			return err
		}
		settlement.ID = id
		settlement.CreatedAt = time.Now()
		created = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment applied",
		slog.Int64("invoice_id", created.InvoiceID),
		slog.Int64("settlement_id", created.ID),
		slog.String("amount", created.Amount.StringFixed(2)),
		slog.String("method", string(created.Method)))
	return created, nil
}

// Get returns one settlement.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Settlement, error) {
	return s.repo.Get(ctx, id, companyID)
}

// List returns settlements matching the filter.
func (s *Service) List(ctx context.Context, req ListSettlementsRequest) ([]Settlement, error) {
	return s.repo.List(ctx, req)
}

// TotalCollected sums every settlement for a company in the given range.
func (s *Service) TotalCollected(ctx context.Context, companyID int64, from, to *time.Time) (decimal.Decimal, error) {
	return s.repo.TotalCollected(ctx, companyID, from, to)
}

// TotalsByMethod breaks the collected sum down per payment method.
func (s *Service) TotalsByMethod(ctx context.Context, companyID int64, from, to *time.Time) ([]MethodTotal, error) {
	return s.repo.TotalsByMethod(ctx, companyID, from, to)
}

// GetSummary returns the collection summary, served from cache when a
// fresh entry exists.
func (s *Service) GetSummary(ctx context.Context, companyID int64, from, to *time.Time) (*Summary, error) {
	if cached := s.cache.Get(ctx, companyID, from, to); cached != nil {
		return cached, nil
	}

	total, err := s.repo.TotalCollected(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.repo.TotalsByMethod(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	summary := &Summary{TotalCollected: total, ByMethod: byMethod}
	s.cache.Set(ctx, companyID, from, to, summary)
	return summary, nil
}
