package purchaseorders

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
	nextID int64
	seq    int64
	byID   map[int64]*PurchaseOrder
	stock  *memoryStock
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Stock() inventory.Store { return m.stock }

func (m *memoryRepo) NextNumber(_ context.Context, _ int64, date time.Time) (string, error) {
	m.seq++
	return fmt.Sprintf("PO-%s-%04d", date.Format("0601"), m.seq), nil
}

func (m *memoryRepo) InsertOrder(_ context.Context, po *PurchaseOrder) (int64, error) {
	m.nextID++
	cp := *po
	cp.ID = m.nextID
	cp.Items = append([]Item(nil), po.Items...)
	m.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memoryRepo) GetOrderForUpdate(ctx context.Context, id, companyID int64) (*PurchaseOrder, error) {
	return m.Get(ctx, id, companyID)
}

func (m *memoryRepo) MarkDeleted(_ context.Context, id, companyID int64) error {
	po, ok := m.byID[id]
	if !ok || po.CompanyID != companyID || po.Deleted {
		return fmt.Errorf("purchase order: %w", shared.ErrNotFound)
	}
	po.Deleted = true
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id, companyID int64) (*PurchaseOrder, error) {
	po, ok := m.byID[id]
	if !ok || po.CompanyID != companyID || po.Deleted {
		return nil, fmt.Errorf("purchase order: %w", shared.ErrNotFound)
	}
	cp := *po
	cp.Items = append([]Item(nil), po.Items...)
	return &cp, nil
}

func (m *memoryRepo) ListRecent(_ context.Context, companyID int64, _ int) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	for _, po := range m.byID {
		if po.CompanyID == companyID && !po.Deleted {
			out = append(out, *po)
		}
	}
	return out, nil
}

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

func qty(n int64) *int64 { return &n }

func newTestService() (*Service, *memoryRepo) {
	repo := &memoryRepo{
		byID: map[int64]*PurchaseOrder{},
		stock: &memoryStock{byID: map[int64]*products.Product{
			100: {ID: 100, CompanyID: 1, Name: "Widget", Type: products.TypeProduct,
				CostPrice: decimal.NewFromFloat(12.50), StockQuantity: qty(3)},
			200: {ID: 200, CompanyID: 1, Name: "Install", Type: products.TypeService,
				CostPrice: decimal.NewFromInt(40)},
		}},
	}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, memoryCompanies{})
	return svc, repo
}

func TestCreateIncreasesStockAtCostPrice(t *testing.T) {
	svc, repo := newTestService()

	po, err := svc.Create(context.Background(), CreatePurchaseOrderRequest{
		CompanyID: 1,
		Items:     []ItemRequest{{ProductID: 100, Quantity: 4}},
	})
	require.NoError(t, err)

	require.Equal(t, int64(7), *repo.stock.byID[100].StockQuantity)
	require.True(t, po.Items[0].UnitCost.Equal(decimal.NewFromFloat(12.50)))
	require.True(t, po.TotalAmount.Equal(decimal.NewFromInt(50)), po.TotalAmount.String())
	require.Contains(t, po.Number, "PO-")
}

func TestCreateRejectsServiceProducts(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreatePurchaseOrderRequest{
		CompanyID: 1,
		Items:     []ItemRequest{{ProductID: 200, Quantity: 1}},
	})
	var ruleErr *shared.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreatePurchaseOrderRequest{
		CompanyID: 1,
		Items:     []ItemRequest{{ProductID: 999, Quantity: 1}},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSoftDeleteReversesStock(t *testing.T) {
	svc, repo := newTestService()

	po, err := svc.Create(context.Background(), CreatePurchaseOrderRequest{
		CompanyID: 1,
		Items:     []ItemRequest{{ProductID: 100, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), *repo.stock.byID[100].StockQuantity)

	require.NoError(t, svc.SoftDelete(context.Background(), 1, po.ID))
	require.Equal(t, int64(3), *repo.stock.byID[100].StockQuantity)

	_, err = svc.Get(context.Background(), 1, po.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSoftDeleteClampsAtZero(t *testing.T) {
	svc, repo := newTestService()

	po, err := svc.Create(context.Background(), CreatePurchaseOrderRequest{
		CompanyID: 1,
		Items:     []ItemRequest{{ProductID: 100, Quantity: 4}},
	})
	require.NoError(t, err)

	// Most of the purchased goods were sold before the delete.
	repo.stock.byID[100].StockQuantity = qty(2)
	require.NoError(t, svc.SoftDelete(context.Background(), 1, po.ID))
	require.Equal(t, int64(0), *repo.stock.byID[100].StockQuantity)
}
