package invoices

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tallyforge/tallyforge/internal/catalog/products"
	"github.com/tallyforge/tallyforge/internal/inventory"
	"github.com/tallyforge/tallyforge/internal/masterdata/companies"
	"github.com/tallyforge/tallyforge/internal/sales/customers"
	"github.com/tallyforge/tallyforge/internal/sales/quotations"
	"github.com/tallyforge/tallyforge/internal/shared"
)

type memoryStock struct {
	byID map[int64]*products.Product
}

func (m *memoryStock) GetForUpdate(_ context.Context, productID, companyID int64) (*products.Product, error) {
	p, ok := m.byID[productID]
	if !ok || p.CompanyID != companyID {
		return nil, fmt.Errorf("product %d: %w", productID, shared.ErrNotFound)
	}
	cp := *p
	if p.StockQuantity != nil {
		qty := *p.StockQuantity
		cp.StockQuantity = &qty
	}
	return &cp, nil
}

func (m *memoryStock) UpdateStock(_ context.Context, productID, companyID, stock int64) error {
	p, ok := m.byID[productID]
	if !ok || p.CompanyID != companyID {
		return fmt.Errorf("product %d: %w", productID, shared.ErrNotFound)
	}
	p.StockQuantity = &stock
	return nil
}

type memoryRepo struct {
	nextID     int64
	byID       map[int64]*Invoice
	stock      *memoryStock
	quotations *memoryQuotations
	beforeTx   func()
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	if m.beforeTx != nil {
		m.beforeTx()
		m.beforeTx = nil
	}
	return fn(ctx, m)
}

func (m *memoryRepo) Stock() inventory.Store { return m.stock }

func (m *memoryRepo) InsertInvoice(_ context.Context, inv *Invoice) (int64, error) {
	m.nextID++
	cp := *inv
	cp.ID = m.nextID
	cp.Items = append([]Item(nil), inv.Items...)
	m.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memoryRepo) MarkQuotationConverted(_ context.Context, quotationID, companyID, invoiceID int64) error {
	q, ok := m.quotations.byID[quotationID]
	if !ok || q.CompanyID != companyID || q.Status != quotations.StatusDraft {
		return shared.BusinessRule("quotation %d is no longer in DRAFT status", quotationID)
	}
	q.Status = quotations.StatusConverted
	q.InvoiceID = &invoiceID
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id, companyID int64) (*Invoice, error) {
	inv, ok := m.byID[id]
	if !ok || inv.CompanyID != companyID {
		return nil, fmt.Errorf("invoice: %w", shared.ErrNotFound)
	}
	cp := *inv
	return &cp, nil
}

func (m *memoryRepo) List(_ context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range m.byID {
		if inv.CompanyID != req.CompanyID {
			continue
		}
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

type memoryQuotations struct {
	byID map[int64]*quotations.Quotation
}

func (m *memoryQuotations) Get(_ context.Context, id, companyID int64) (*quotations.Quotation, error) {
	q, ok := m.byID[id]
	if !ok || q.CompanyID != companyID || q.Deleted {
		return nil, fmt.Errorf("quotation: %w", shared.ErrNotFound)
	}
	cp := *q
	cp.Items = append([]quotations.Item(nil), q.Items...)
	return &cp, nil
}

func (m *memoryQuotations) List(_ context.Context, _ quotations.ListQuotationsRequest) ([]quotations.Quotation, error) {
	return nil, nil
}
func (m *memoryQuotations) Create(_ context.Context, q *quotations.Quotation) (*quotations.Quotation, error) {
	return q, nil
}
func (m *memoryQuotations) Update(_ context.Context, q *quotations.Quotation) (*quotations.Quotation, error) {
	return q, nil
}
func (m *memoryQuotations) SetStatus(_ context.Context, _, _ int64, _ quotations.QuotationStatus) error {
	return nil
}
func (m *memoryQuotations) SoftDelete(_ context.Context, _, _ int64) error { return nil }

type memoryCompanies struct{}

func (memoryCompanies) GetActive(_ context.Context, id int64) (*companies.Company, error) {
	if id != 1 {
		return nil, fmt.Errorf("company: %w", shared.ErrNotFound)
	}
	return &companies.Company{ID: id, Active: true}, nil
}
func (memoryCompanies) Create(_ context.Context, c companies.Company) (*companies.Company, error) {
	return &c, nil
}
func (memoryCompanies) Update(_ context.Context, c companies.Company) (*companies.Company, error) {
	return &c, nil
}
func (memoryCompanies) List(_ context.Context) ([]companies.Company, error) { return nil, nil }

type memoryCustomers struct{}

func (memoryCustomers) Get(_ context.Context, id, companyID int64) (*customers.Customer, error) {
	if companyID != 1 || id != 10 {
		return nil, fmt.Errorf("customer: %w", shared.ErrNotFound)
	}
	return &customers.Customer{ID: id, CompanyID: companyID}, nil
}
func (memoryCustomers) Create(_ context.Context, c customers.Customer) (*customers.Customer, error) {
	return &c, nil
}
func (memoryCustomers) Update(_ context.Context, c customers.Customer) (*customers.Customer, error) {
	return &c, nil
}
func (memoryCustomers) List(_ context.Context, _ int64) ([]customers.Customer, error) {
	return nil, nil
}

func qty(n int64) *int64 { return &n }

func fixtureProducts() *memoryStock {
	return &memoryStock{byID: map[int64]*products.Product{
		100: {ID: 100, CompanyID: 1, Name: "Widget", Type: products.TypeProduct,
			SellingPrice: decimal.NewFromInt(100), TaxRate: decimal.NewFromInt(10), StockQuantity: qty(5)},
		101: {ID: 101, CompanyID: 1, Name: "Gadget", Type: products.TypeProduct,
			SellingPrice: decimal.NewFromInt(50), TaxRate: decimal.Zero, StockQuantity: qty(1)},
		200: {ID: 200, CompanyID: 1, Name: "Install", Type: products.TypeService,
			SellingPrice: decimal.NewFromInt(75), TaxRate: decimal.NewFromInt(18)},
	}}
}

func newTestService() (*Service, *memoryRepo) {
	repo := &memoryRepo{
		byID:       map[int64]*Invoice{},
		stock:      fixtureProducts(),
		quotations: &memoryQuotations{byID: map[int64]*quotations.Quotation{}},
	}
	svc := NewService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		repo, memoryCompanies{}, memoryCustomers{}, repo.quotations,
	)
	return svc, repo
}

func TestCreateInvoicePricesFromCatalogAndReducesStock(t *testing.T) {
	svc, repo := newTestService()

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CompanyID:       1,
		CustomerID:      10,
		DiscountPercent: 10,
		Items: []ItemRequest{
			{ProductID: 100, Quantity: 2},
		},
	})
	require.NoError(t, err)

	require.Equal(t, StatusPending, inv.Status)
	require.True(t, inv.Subtotal.Equal(decimal.NewFromInt(200)))
	require.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(20)))
	require.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(198)), inv.TotalAmount.String())
	require.True(t, inv.PaidAmount.IsZero())
	require.True(t, inv.OutstandingAmount.Equal(inv.TotalAmount))
	require.True(t, inv.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))

	require.Equal(t, int64(3), *repo.stock.byID[100].StockQuantity)
}

func TestCreateInvoiceDefaultsDueDate(t *testing.T) {
	svc, _ := newTestService()

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CompanyID:  1,
		CustomerID: 10,
		Items:      []ItemRequest{{ProductID: 100, Quantity: 1}},
	})
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().AddDate(0, 0, DefaultDueDays), inv.DueDate, time.Minute)
}

func TestCreateInvoiceCollectsAllShortItems(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CompanyID:  1,
		CustomerID: 10,
		Items: []ItemRequest{
			{ProductID: 100, Quantity: 10},
			{ProductID: 101, Quantity: 3},
		},
	})
	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Items, 2)
	require.Equal(t, int64(10), stockErr.Items[0].Requested)
	require.Equal(t, int64(5), stockErr.Items[0].Available)

	// Nothing was written and nothing was reduced.
	require.Empty(t, repo.byID)
	require.Equal(t, int64(5), *repo.stock.byID[100].StockQuantity)
	require.Equal(t, int64(1), *repo.stock.byID[101].StockQuantity)
}

func TestCreateInvoiceSkipsStockForServices(t *testing.T) {
	svc, _ := newTestService()

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CompanyID:  1,
		CustomerID: 10,
		Items:      []ItemRequest{{ProductID: 200, Quantity: 4}},
	})
	require.NoError(t, err)
	require.True(t, inv.Subtotal.Equal(decimal.NewFromInt(300)))
}

func TestCreateInvoiceRejectsUnknownProduct(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CompanyID:  1,
		CustomerID: 10,
		Items:      []ItemRequest{{ProductID: 999, Quantity: 1}},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func draftQuotation(id int64) *quotations.Quotation {
	// 2 x 100 @ 10% tax, 10% discount: the worked settlement example.
	return &quotations.Quotation{
		ID:                  id,
		Number:              "QT-2501-0001",
		CompanyID:           1,
		CustomerID:          10,
		QuoteDate:           time.Now(),
		Status:              quotations.StatusDraft,
		DiscountPercent:     decimal.NewFromInt(10),
		Subtotal:            decimal.NewFromInt(200),
		TaxAmount:           decimal.NewFromInt(20),
		TotalBeforeDiscount: decimal.NewFromInt(220),
		DiscountAmount:      decimal.NewFromInt(22),
		TotalAmount:         decimal.NewFromInt(198),
		Items: []quotations.Item{{
			ID: 1, QuotationID: id, ProductID: 100,
			Quantity:  decimal.NewFromInt(2),
			UnitPrice: decimal.NewFromInt(100),
			TaxRate:   decimal.NewFromInt(10),
			TaxAmount: decimal.NewFromInt(20),
			LineTotal: decimal.NewFromInt(220),
		}},
	}
}

func TestConvertQuotationCopiesAmountsVerbatim(t *testing.T) {
	svc, repo := newTestService()
	repo.quotations.byID[7] = draftQuotation(7)

	// A price change after quoting must not leak into the conversion.
	repo.stock.byID[100].SellingPrice = decimal.NewFromInt(500)

	inv, err := svc.ConvertQuotation(context.Background(), 1, 7, ConvertQuotationRequest{})
	require.NoError(t, err)

	require.Equal(t, int64(7), *inv.QuotationID)
	require.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(198)))
	require.True(t, inv.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
	require.Equal(t, int64(3), *repo.stock.byID[100].StockQuantity)

	q := repo.quotations.byID[7]
	require.Equal(t, quotations.StatusConverted, q.Status)
	require.Equal(t, inv.ID, *q.InvoiceID)
}

func TestConvertQuotationRejectsNonDraft(t *testing.T) {
	svc, repo := newTestService()
	q := draftQuotation(7)
	q.Status = quotations.StatusSent
	repo.quotations.byID[7] = q

	_, err := svc.ConvertQuotation(context.Background(), 1, 7, ConvertQuotationRequest{})
	var ruleErr *shared.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
}

func TestConvertQuotationRejectsSecondConversion(t *testing.T) {
	svc, repo := newTestService()
	repo.quotations.byID[7] = draftQuotation(7)

	_, err := svc.ConvertQuotation(context.Background(), 1, 7, ConvertQuotationRequest{})
	require.NoError(t, err)

	_, err = svc.ConvertQuotation(context.Background(), 1, 7, ConvertQuotationRequest{})
	var ruleErr *shared.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
}

func TestConvertQuotationLosingConcurrentConversion(t *testing.T) {
	svc, repo := newTestService()
	repo.quotations.byID[7] = draftQuotation(7)

	// A concurrent conversion commits between the DRAFT read and the
	// transaction; the status flip must then fail as a rule violation.
	repo.beforeTx = func() {
		winner := int64(99)
		repo.quotations.byID[7].Status = quotations.StatusConverted
		repo.quotations.byID[7].InvoiceID = &winner
	}

	_, err := svc.ConvertQuotation(context.Background(), 1, 7, ConvertQuotationRequest{})
	var ruleErr *shared.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
	require.NotErrorIs(t, err, shared.ErrNotFound)
}

func TestConvertQuotationChecksCurrentStock(t *testing.T) {
	svc, repo := newTestService()
	repo.quotations.byID[7] = draftQuotation(7)
	repo.stock.byID[100].StockQuantity = qty(1)

	_, err := svc.ConvertQuotation(context.Background(), 1, 7, ConvertQuotationRequest{})
	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, quotations.StatusDraft, repo.quotations.byID[7].Status)
}

func TestConvertQuotationRejectsEmptyItems(t *testing.T) {
	svc, repo := newTestService()
	q := draftQuotation(7)
	q.Items = nil
	repo.quotations.byID[7] = q

	_, err := svc.ConvertQuotation(context.Background(), 1, 7, ConvertQuotationRequest{})
	var ruleErr *shared.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
}
