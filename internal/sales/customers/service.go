package customers

import (
	"context"
	"fmt"
)

// Service handles customer master data.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get fetches one customer scoped by company.
func (s *Service) Get(ctx context.Context, id, companyID int64) (*Customer, error) {
	return s.repo.Get(ctx, id, companyID)
}

// Create registers a customer for a company.
func (s *Service) Create(ctx context.Context, c Customer) (*Customer, error) {
	if c.Type == "" {
		c.Type = TypeRetail
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return created, nil
}

// Update modifies an existing customer.
func (s *Service) Update(ctx context.Context, c Customer) (*Customer, error) {
	existing, err := s.repo.Get(ctx, c.ID, c.CompanyID)
	if err != nil {
		return nil, err
	}
	if c.Type == "" {
		c.Type = existing.Type
	}
	updated, err := s.repo.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return updated, nil
}

// List returns all customers of a company.
func (s *Service) List(ctx context.Context, companyID int64) ([]Customer, error) {
	return s.repo.List(ctx, companyID)
}
