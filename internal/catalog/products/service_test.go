package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tallyforge/tallyforge/internal/shared"
)

type memoryRepo struct {
	nextID int64
	byID   map[int64]*Product
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: map[int64]*Product{}}
}

func (m *memoryRepo) GetActive(_ context.Context, id, companyID int64) (*Product, error) {
	p, ok := m.byID[id]
	if !ok || p.CompanyID != companyID || !p.Active {
		return nil, fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memoryRepo) Create(_ context.Context, p Product) (*Product, error) {
	m.nextID++
	p.ID = m.nextID
	p.Active = true
	m.byID[p.ID] = &p
	cp := p
	return &cp, nil
}

func (m *memoryRepo) Update(_ context.Context, p Product) (*Product, error) {
	existing, ok := m.byID[p.ID]
	if !ok || !existing.Active {
		return nil, fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	p.Active = true
	p.StockQuantity = existing.StockQuantity
	m.byID[p.ID] = &p
	cp := p
	return &cp, nil
}

func (m *memoryRepo) Deactivate(_ context.Context, id, companyID int64) error {
	p, ok := m.byID[id]
	if !ok || p.CompanyID != companyID || !p.Active {
		return fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	p.Active = false
	return nil
}

func (m *memoryRepo) List(_ context.Context, companyID int64) ([]Product, error) {
	var out []Product
	for _, p := range m.byID {
		if p.CompanyID == companyID && p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func validProduct() Product {
	qty := int64(10)
	return Product{
		CompanyID:     1,
		Name:          "Widget",
		CostPrice:     decimal.NewFromInt(60),
		SellingPrice:  decimal.NewFromInt(100),
		TaxRate:       decimal.NewFromInt(18),
		StockQuantity: &qty,
	}
}

func TestCreateDefaultsToProductType(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p, err := svc.Create(context.Background(), validProduct())
	require.NoError(t, err)
	require.Equal(t, TypeProduct, p.Type)
	require.NotNil(t, p.StockQuantity)
}

func TestCreateRejectsSellingBelowCost(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p := validProduct()
	p.SellingPrice = decimal.NewFromInt(50)
	_, err := svc.Create(context.Background(), p)
	var ruleErr *shared.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
}

func TestCreateRejectsNegativeTaxRate(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p := validProduct()
	p.TaxRate = decimal.NewFromInt(-1)
	_, err := svc.Create(context.Background(), p)
	var ruleErr *shared.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
}

func TestCreateStripsStockFromServices(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p := validProduct()
	p.Type = TypeService
	created, err := svc.Create(context.Background(), p)
	require.NoError(t, err)
	require.Nil(t, created.StockQuantity)
}

func TestUpdateNeverTouchesStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validProduct())
	require.NoError(t, err)

	update := *created
	bogus := int64(9999)
	update.StockQuantity = &bogus
	update.SellingPrice = decimal.NewFromInt(120)
	updated, err := svc.Update(context.Background(), update)
	require.NoError(t, err)

	require.True(t, updated.SellingPrice.Equal(decimal.NewFromInt(120)))
	require.Equal(t, int64(10), *repo.byID[created.ID].StockQuantity)
}

func TestDeactivateHidesProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validProduct())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID, 1))
	_, err = svc.Get(context.Background(), created.ID, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
