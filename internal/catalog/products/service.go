package products

import (
	"context"
	"fmt"

	"github.com/tallyforge/tallyforge/internal/shared"
)

// Service handles product catalog rules.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validatePrices(p Product) error {
	if p.SellingPrice.LessThanOrEqual(p.CostPrice) {
		return shared.BusinessRule("selling price %s must exceed cost price %s", p.SellingPrice, p.CostPrice)
	}
	if p.TaxRate.IsNegative() {
		return shared.BusinessRule("tax rate must not be negative")
	}
	return nil
}

// Get fetches one active product scoped by company.
func (s *Service) Get(ctx context.Context, id, companyID int64) (*Product, error) {
	return s.repo.GetActive(ctx, id, companyID)
}

// Create registers a product. Stock quantity is only accepted for
// PRODUCT-type entries; services never carry stock.
func (s *Service) Create(ctx context.Context, p Product) (*Product, error) {
	if p.Type == "" {
		p.Type = TypeProduct
	}
	if err := validatePrices(p); err != nil {
		return nil, err
	}
	if p.Type == TypeService {
		p.StockQuantity = nil
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// Update modifies catalog fields. Stock quantity is deliberately not
// updatable here; all stock mutation flows through the inventory ledger.
func (s *Service) Update(ctx context.Context, p Product) (*Product, error) {
	existing, err := s.repo.GetActive(ctx, p.ID, p.CompanyID)
	if err != nil {
		return nil, err
	}
	if p.Type == "" {
		p.Type = existing.Type
	}
	if err := validatePrices(p); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// Deactivate soft-disables a product.
func (s *Service) Deactivate(ctx context.Context, id, companyID int64) error {
	return s.repo.Deactivate(ctx, id, companyID)
}

// List returns all active products of a company.
func (s *Service) List(ctx context.Context, companyID int64) ([]Product, error) {
	return s.repo.List(ctx, companyID)
}
