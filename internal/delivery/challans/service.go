package challans

import (
	"context"
	"log/slog"
	"time"

	"github.com/tallyforge/tallyforge/internal/billing/invoices"
	"github.com/tallyforge/tallyforge/internal/masterdata/companies"
	"github.com/tallyforge/tallyforge/internal/sales/customers"
)

// Service issues delivery challans.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	companies companies.Repository
	customers customers.Repository
	invoices  invoices.Repository
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo Repository, comp companies.Repository, cust customers.Repository, inv invoices.Repository) *Service {
	return &Service{logger: logger, repo: repo, companies: comp, customers: cust, invoices: inv}
}

// Issue validates the references and creates a numbered challan.
func (s *Service) Issue(ctx context.Context, req IssueChallanRequest) (*Challan, error) {
	if _, err := s.companies.GetActive(ctx, req.CompanyID); err != nil {
		return nil, err
	}
	if _, err := s.customers.Get(ctx, req.CustomerID, req.CompanyID); err != nil {
		return nil, err
	}
	if req.InvoiceID != nil {
		if _, err := s.invoices.Get(ctx, *req.InvoiceID, req.CompanyID); err != nil {
			return nil, err
		}
	}

	challanDate := time.Now()
	if req.ChallanDate != nil {
		challanDate = *req.ChallanDate
	}

	items := make([]Item, len(req.Items))
	for i, ir := range req.Items {
		items[i] = Item{ProductID: ir.ProductID, Description: ir.Description, Quantity: ir.Quantity}
	}

	c, err := s.repo.Create(ctx, &Challan{
		CompanyID:   req.CompanyID,
		CustomerID:  req.CustomerID,
		InvoiceID:   req.InvoiceID,
		ChallanDate: challanDate,
		VehicleNo:   req.VehicleNo,
		Notes:       req.Notes,
		Items:       items,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("challan issued",
		slog.Int64("challan_id", c.ID),
		slog.String("number", c.Number))
	return c, nil
}

// Get returns one challan with its items.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Challan, error) {
	return s.repo.Get(ctx, id, companyID)
}

// List returns the newest challans for a company.
func (s *Service) List(ctx context.Context, companyID int64, limit int) ([]Challan, error) {
	return s.repo.List(ctx, companyID, limit)
}
