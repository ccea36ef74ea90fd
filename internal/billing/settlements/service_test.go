package settlements

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tallyforge/tallyforge/internal/billing/invoices"
	"github.com/tallyforge/tallyforge/internal/shared"
)

type memoryRepo struct {
	nextID      int64
	invoices    map[int64]*invoices.Invoice
	settlements map[int64]*Settlement
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices:    map[int64]*invoices.Invoice{},
		settlements: map[int64]*Settlement{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) GetInvoiceForUpdate(_ context.Context, invoiceID, companyID int64) (*invoices.Invoice, error) {
	inv, ok := m.invoices[invoiceID]
	if !ok || inv.CompanyID != companyID {
		return nil, fmt.Errorf("invoice: %w", shared.ErrNotFound)
	}
	cp := *inv
	return &cp, nil
}

func (m *memoryRepo) InsertSettlement(_ context.Context, s *Settlement) (int64, error) {
	m.nextID++
	cp := *s
	cp.ID = m.nextID
	m.settlements[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memoryRepo) UpdateInvoiceSettlement(_ context.Context, invoiceID int64, paid, outstanding decimal.Decimal, status invoices.InvoiceStatus) error {
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return fmt.Errorf("invoice: %w", shared.ErrNotFound)
	}
	inv.PaidAmount = paid
	inv.OutstandingAmount = outstanding
	inv.Status = status
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id, companyID int64) (*Settlement, error) {
	s, ok := m.settlements[id]
	if !ok || s.CompanyID != companyID {
		return nil, fmt.Errorf("settlement: %w", shared.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *memoryRepo) List(_ context.Context, req ListSettlementsRequest) ([]Settlement, error) {
	var out []Settlement
	for _, s := range m.settlements {
		if s.CompanyID != req.CompanyID {
			continue
		}
		if req.InvoiceID != nil && s.InvoiceID != *req.InvoiceID {
			continue
		}
		if req.Method != nil && s.Method != *req.Method {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *memoryRepo) TotalCollected(_ context.Context, companyID int64, _, _ *time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, s := range m.settlements {
		if s.CompanyID == companyID {
			total = total.Add(s.Amount)
		}
	}
	return total, nil
}

func (m *memoryRepo) TotalsByMethod(_ context.Context, companyID int64, _, _ *time.Time) ([]MethodTotal, error) {
	sums := map[PaymentMethod]decimal.Decimal{}
	for _, s := range m.settlements {
		if s.CompanyID == companyID {
			sums[s.Method] = sums[s.Method].Add(s.Amount)
		}
	}
	var out []MethodTotal
	for method, total := range sums {
		out = append(out, MethodTotal{Method: method, Total: total})
	}
	return out, nil
}

func pendingInvoice(id int64, total float64) *invoices.Invoice {
	t := decimal.NewFromFloat(total)
	return &invoices.Invoice{
		ID:                id,
		Number:            fmt.Sprintf("INV-test-%d", id),
		CompanyID:         1,
		CustomerID:        10,
		InvoiceDate:       time.Now(),
		DueDate:           time.Now().AddDate(0, 0, 30),
		Status:            invoices.StatusPending,
		TotalAmount:       t,
		PaidAmount:        decimal.Zero,
		OutstandingAmount: t,
	}
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo), repo
}

func TestApplyPaymentPartialThenFull(t *testing.T) {
	svc, repo := newTestService()
	repo.invoices[1] = pendingInvoice(1, 198)

	s1, err := svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 1, Amount: 100, Method: "UPI",
	})
	require.NoError(t, err)
	require.Equal(t, MethodUPI, s1.Method)

	inv := repo.invoices[1]
	require.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(100)))
	require.True(t, inv.OutstandingAmount.Equal(decimal.NewFromInt(98)))
	require.Equal(t, invoices.StatusPending, inv.Status)

	_, err = svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 1, Amount: 98,
	})
	require.NoError(t, err)
	require.True(t, inv.OutstandingAmount.IsZero())
	require.Equal(t, invoices.StatusPaid, inv.Status)
}

func TestApplyPaymentRejectsOverpayment(t *testing.T) {
	svc, repo := newTestService()
	repo.invoices[1] = pendingInvoice(1, 100)

	_, err := svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 1, Amount: 100.01,
	})
	var ruleErr *shared.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)

	// The invoice is untouched and no settlement was recorded.
	require.True(t, repo.invoices[1].PaidAmount.IsZero())
	require.Empty(t, repo.settlements)
}

func TestApplyPaymentRejectsFullyPaidInvoice(t *testing.T) {
	svc, repo := newTestService()
	inv := pendingInvoice(1, 100)
	inv.PaidAmount = decimal.NewFromInt(100)
	inv.OutstandingAmount = decimal.Zero
	inv.Status = invoices.StatusPaid
	repo.invoices[1] = inv

	_, err := svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 1, Amount: 1,
	})
	var ruleErr *shared.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
}

func TestApplyPaymentKeepsOverdueSticky(t *testing.T) {
	svc, repo := newTestService()
	inv := pendingInvoice(1, 200)
	inv.Status = invoices.StatusOverdue
	inv.DueDate = time.Now().AddDate(0, 0, -5)
	repo.invoices[1] = inv

	// Partial payment leaves the invoice OVERDUE.
	_, err := svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 1, Amount: 50,
	})
	require.NoError(t, err)
	require.Equal(t, invoices.StatusOverdue, inv.Status)

	// Full settlement flips it to PAID even though it is past due.
	_, err = svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 1, Amount: 150,
	})
	require.NoError(t, err)
	require.Equal(t, invoices.StatusPaid, inv.Status)
}

func TestApplyPaymentDefaultsToCash(t *testing.T) {
	svc, repo := newTestService()
	repo.invoices[1] = pendingInvoice(1, 100)

	s, err := svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 1, Amount: 10,
	})
	require.NoError(t, err)
	require.Equal(t, MethodCash, s.Method)
}

func TestApplyPaymentRejectsUnknownMethod(t *testing.T) {
	svc, repo := newTestService()
	repo.invoices[1] = pendingInvoice(1, 100)

	_, err := svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 1, Amount: 10, Method: "BARTER",
	})
	var ruleErr *shared.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
}

func TestApplyPaymentUnknownInvoice(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 42, Amount: 10,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaidPlusOutstandingEqualsTotal(t *testing.T) {
	svc, repo := newTestService()
	repo.invoices[1] = pendingInvoice(1, 198)

	for _, amount := range []float64{33.33, 66.67, 50, 48} {
		_, err := svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
			CompanyID: 1, InvoiceID: 1, Amount: amount,
		})
		require.NoError(t, err)
		inv := repo.invoices[1]
		require.True(t, inv.PaidAmount.Add(inv.OutstandingAmount).Equal(inv.TotalAmount),
			"paid %s + outstanding %s != total %s", inv.PaidAmount, inv.OutstandingAmount, inv.TotalAmount)
	}
	require.Equal(t, invoices.StatusPaid, repo.invoices[1].Status)
}

func TestSummaryTotals(t *testing.T) {
	svc, repo := newTestService()
	repo.invoices[1] = pendingInvoice(1, 500)

	for _, p := range []struct {
		amount float64
		method string
	}{
		{100, "CASH"}, {150, "UPI"}, {50, "CASH"},
	} {
		_, err := svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
			CompanyID: 1, InvoiceID: 1, Amount: p.amount, Method: p.method,
		})
		require.NoError(t, err)
	}

	total, err := svc.TotalCollected(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.NewFromInt(300)))

	byMethod, err := svc.TotalsByMethod(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	sums := map[PaymentMethod]decimal.Decimal{}
	for _, mt := range byMethod {
		sums[mt.Method] = mt.Total
	}
	require.True(t, sums[MethodCash].Equal(decimal.NewFromInt(150)))
	require.True(t, sums[MethodUPI].Equal(decimal.NewFromInt(150)))
}

func TestGetSummaryCachesUntilExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	svc, repo := newTestService()
	svc.WithCache(NewSummaryCache(client, time.Minute))
	repo.invoices[1] = pendingInvoice(1, 500)

	_, err := svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 1, Amount: 100,
	})
	require.NoError(t, err)

	summary, err := svc.GetSummary(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	require.True(t, summary.TotalCollected.Equal(decimal.NewFromInt(100)))

	// A second payment is invisible until the cached entry expires.
	_, err = svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
		CompanyID: 1, InvoiceID: 1, Amount: 50,
	})
	require.NoError(t, err)

	summary, err = svc.GetSummary(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	require.True(t, summary.TotalCollected.Equal(decimal.NewFromInt(100)))

	mr.FastForward(2 * time.Minute)
	summary, err = svc.GetSummary(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	require.True(t, summary.TotalCollected.Equal(decimal.NewFromInt(150)))
}
