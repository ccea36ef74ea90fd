package companies

import (
	"context"
	"fmt"
)

// Service handles company master data.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns an active company.
func (s *Service) Get(ctx context.Context, id int64) (*Company, error) {
	return s.repo.GetActive(ctx, id)
}

// Create registers a new company.
func (s *Service) Create(ctx context.Context, c Company) (*Company, error) {
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return created, nil
}

// Update modifies company master data.
func (s *Service) Update(ctx context.Context, c Company) (*Company, error) {
	if _, err := s.repo.GetActive(ctx, c.ID); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return updated, nil
}

// List returns all companies.
func (s *Service) List(ctx context.Context) ([]Company, error) {
	return s.repo.List(ctx)
}
