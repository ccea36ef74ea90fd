package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyforge/tallyforge/internal/catalog/products"
	"github.com/tallyforge/tallyforge/internal/masterdata/companies"
	"github.com/tallyforge/tallyforge/internal/money"
	"github.com/tallyforge/tallyforge/internal/sales/customers"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// Service implements the quotation lifecycle. Quotations are priced from
// caller-supplied unit prices and tax rates, frozen at creation; stock is
// never checked or touched here.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	companies companies.Repository
	customers customers.Repository
	products  ProductChecker
}

// ProductChecker verifies that a referenced product exists, is active and
// belongs to the company.
type ProductChecker interface {
	Exists(ctx context.Context, productID, companyID int64) error
}

type catalogChecker struct {
	repo products.Repository
}

// NewCatalogChecker adapts the product catalog to ProductChecker.
func NewCatalogChecker(repo products.Repository) ProductChecker {
	return &catalogChecker{repo: repo}
}

func (c *catalogChecker) Exists(ctx context.Context, productID, companyID int64) error {
	_, err := c.repo.GetActive(ctx, productID, companyID)
	return err
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo Repository, comp companies.Repository, cust customers.Repository, prod ProductChecker) *Service {
	return &Service{logger: logger, repo: repo, companies: comp, customers: cust, products: prod}
}

func (s *Service) buildItems(ctx context.Context, companyID int64, reqs []ItemRequest) ([]Item, []money.Line, error) {
	items := make([]Item, 0, len(reqs))
	lines := make([]money.Line, 0, len(reqs))
	for _, ir := range reqs {
		if err := s.products.Exists(ctx, ir.ProductID, companyID); err != nil {
			return nil, nil, fmt.Errorf("product %d: %w", ir.ProductID, err)
		}
		line := money.Line{
			Quantity:  decimal.NewFromFloat(ir.Quantity),
			UnitPrice: money.Round2(decimal.NewFromFloat(ir.UnitPrice)),
			TaxRate:   decimal.NewFromFloat(ir.TaxRate),
		}
		amounts := money.ComputeLine(line)
		items = append(items, Item{
			ProductID:   ir.ProductID,
			Description: ir.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TaxRate:     line.TaxRate,
			TaxAmount:   amounts.Tax,
			LineTotal:   amounts.Total,
		})
		lines = append(lines, line)
	}
	return items, lines, nil
}

// Create validates the company, customer and every referenced product,
// computes totals and persists a new DRAFT quotation.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest) (*Quotation, error) {
	if _, err := s.companies.GetActive(ctx, req.CompanyID); err != nil {
		return nil, err
	}
	if _, err := s.customers.Get(ctx, req.CustomerID, req.CompanyID); err != nil {
		return nil, err
	}

	items, lines, err := s.buildItems(ctx, req.CompanyID, req.Items)
	if err != nil {
		return nil, err
	}

	quoteDate := time.Now()
	if req.QuoteDate != nil {
		quoteDate = *req.QuoteDate
	}
	discount := decimal.NewFromFloat(req.DiscountPercent)
	totals := money.Totals(lines, discount)

	q := &Quotation{
		CompanyID:           req.CompanyID,
		CustomerID:          req.CustomerID,
		QuoteDate:           quoteDate,
		Status:              StatusDraft,
		DiscountPercent:     discount,
		DiscountReason:      req.DiscountReason,
		Notes:               req.Notes,
		Subtotal:            totals.Subtotal,
		TaxAmount:           totals.TaxAmount,
		TotalBeforeDiscount: totals.TotalBeforeDiscount,
		DiscountAmount:      totals.DiscountAmount,
		TotalAmount:         totals.TotalAmount,
		Items:               items,
	}
	created, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, err
	}
	s.logger.Info("quotation created",
		slog.Int64("quotation_id", created.ID),
		slog.String("number", created.Number),
		slog.String("total", created.TotalAmount.StringFixed(2)))
	return created, nil
}

// Update patches a DRAFT quotation and recomputes totals. Supplying items
// replaces the whole line set.
func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusDraft {
		return nil, shared.BusinessRule("only DRAFT quotations can be updated; current status is %s", q.Status)
	}

	if req.CustomerID != nil {
		if _, err := s.customers.Get(ctx, *req.CustomerID, companyID); err != nil {
			return nil, err
		}
		q.CustomerID = *req.CustomerID
	}
	if req.DiscountPercent != nil {
		q.DiscountPercent = decimal.NewFromFloat(*req.DiscountPercent)
	}
	if req.DiscountReason != nil {
		q.DiscountReason = req.DiscountReason
	}
	if req.Notes != nil {
		q.Notes = req.Notes
	}
	if req.Items != nil {
		items, _, err := s.buildItems(ctx, companyID, *req.Items)
		if err != nil {
			return nil, err
		}
		q.Items = items
	}

	lines := make([]money.Line, len(q.Items))
	for i, it := range q.Items {
		lines[i] = money.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, TaxRate: it.TaxRate}
	}
	totals := money.Totals(lines, q.DiscountPercent)
	q.Subtotal = totals.Subtotal
	q.TaxAmount = totals.TaxAmount
	q.TotalBeforeDiscount = totals.TotalBeforeDiscount
	q.DiscountAmount = totals.DiscountAmount
	q.TotalAmount = totals.TotalAmount

	return s.repo.Update(ctx, q)
}

// MarkSent transitions DRAFT to SENT.
func (s *Service) MarkSent(ctx context.Context, companyID, id int64) (*Quotation, error) {
	return s.transition(ctx, companyID, id, StatusDraft, StatusSent)
}

// Approve transitions SENT to APPROVED.
func (s *Service) Approve(ctx context.Context, companyID, id int64) (*Quotation, error) {
	return s.transition(ctx, companyID, id, StatusSent, StatusApproved)
}

func (s *Service) transition(ctx context.Context, companyID, id int64, from, to QuotationStatus) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if q.Status != from {
		return nil, shared.BusinessRule("cannot move quotation %s from %s to %s", q.Number, q.Status, to)
	}
	if err := s.repo.SetStatus(ctx, id, companyID, to); err != nil {
		return nil, err
	}
	q.Status = to
	return q, nil
}

// Get returns one quotation with its items.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id, companyID)
}

// List returns quotations matching the filter.
func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, error) {
	return s.repo.List(ctx, req)
}

// SoftDelete hides a quotation from every read path without destroying
// the row. Any status may be deleted; an invoice created from a converted
// quotation is unaffected.
func (s *Service) SoftDelete(ctx context.Context, companyID, id int64) error {
	if _, err := s.repo.Get(ctx, id, companyID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id, companyID)
}
