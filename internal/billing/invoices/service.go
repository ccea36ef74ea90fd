package invoices

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyforge/tallyforge/internal/catalog/products"
	"github.com/tallyforge/tallyforge/internal/docnum"
	"github.com/tallyforge/tallyforge/internal/inventory"
	"github.com/tallyforge/tallyforge/internal/masterdata/companies"
	"github.com/tallyforge/tallyforge/internal/money"
	"github.com/tallyforge/tallyforge/internal/sales/customers"
	"github.com/tallyforge/tallyforge/internal/sales/quotations"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// Service creates invoices, either directly from the catalog or by
// converting a DRAFT quotation. Every stock check and reduction happens
// inside the same transaction as the invoice insert, against row-locked
// product rows, so a request either fully succeeds or leaves nothing
// behind.
type Service struct {
	logger     *slog.Logger
	repo       Repository
	companies  companies.Repository
	customers  customers.Repository
	quotations quotations.Repository
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo Repository, comp companies.Repository, cust customers.Repository, quot quotations.Repository) *Service {
	return &Service{logger: logger, repo: repo, companies: comp, customers: cust, quotations: quot}
}

// requiredUnits converts a line quantity to whole stock units. Fractional
// quantities are truncated, matching how stock is counted.
func requiredUnits(qty decimal.Decimal) int64 {
	return qty.IntPart()
}

// checkAndReduce locks every referenced product, verifies stock for the
// stocked ones and reduces it. All short lines are collected before
// failing so the caller sees the complete picture in one response.
func checkAndReduce(ctx context.Context, stock inventory.Store, companyID int64, items []Item) (map[int64]*products.Product, error) {
	locked := make(map[int64]*products.Product, len(items))
	var short []shared.ShortItem
	for _, it := range items {
		p, err := stock.GetForUpdate(ctx, it.ProductID, companyID)
		if err != nil {
			return nil, err
		}
		locked[it.ProductID] = p
		if !p.IsStocked() {
			continue
		}
		required := requiredUnits(it.Quantity)
		if !inventory.HasSufficientStock(p, required) {
			available := int64(0)
			if p.StockQuantity != nil {
				available = *p.StockQuantity
			}
			short = append(short, shared.ShortItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   required,
				Available:   available,
			})
		}
	}
	if len(short) > 0 {
		return nil, &shared.InsufficientStockError{Items: short}
	}

	for _, it := range items {
		p := locked[it.ProductID]
		if !p.IsStocked() {
			continue
		}
		newStock := inventory.ReduceStock(p, requiredUnits(it.Quantity))
		if err := stock.UpdateStock(ctx, p.ID, companyID, newStock); err != nil {
			return nil, err
		}
		p.StockQuantity = &newStock
	}
	return locked, nil
}

func resolveDates(invoiceDate, dueDate *time.Time) (time.Time, time.Time) {
	inv := time.Now()
	if invoiceDate != nil {
		inv = *invoiceDate
	}
	due := inv.AddDate(0, 0, DefaultDueDays)
	if dueDate != nil {
		due = *dueDate
	}
	return inv, due
}

// Create prices each line from the live catalog, verifies stock and
// persists the invoice, reducing stock in the same transaction.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if _, err := s.companies.GetActive(ctx, req.CompanyID); err != nil {
		return nil, err
	}
	if _, err := s.customers.Get(ctx, req.CustomerID, req.CompanyID); err != nil {
		return nil, err
	}

	invoiceDate, dueDate := resolveDates(req.InvoiceDate, req.DueDate)
	discount := decimal.NewFromFloat(req.DiscountPercent)

	var created *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		// Price lines from the locked product rows so a concurrent price
		// change cannot split a single invoice across two price points.
		items := make([]Item, 0, len(req.Items))
		for _, ir := range req.Items {
			items = append(items, Item{
				ProductID:   ir.ProductID,
				Description: ir.Description,
				Quantity:    decimal.NewFromFloat(ir.Quantity),
			})
		}
		locked, err := checkAndReduce(ctx, tx.Stock(), req.CompanyID, items)
		if err != nil {
			return err
		}

		lines := make([]money.Line, len(items))
		for i := range items {
			p := locked[items[i].ProductID]
			items[i].UnitPrice = p.SellingPrice
			items[i].TaxRate = p.TaxRate
			line := money.Line{Quantity: items[i].Quantity, UnitPrice: p.SellingPrice, TaxRate: p.TaxRate}
			amounts := money.ComputeLine(line)
			items[i].TaxAmount = amounts.Tax
			items[i].LineTotal = amounts.Total
			lines[i] = line
		}
		totals := money.Totals(lines, discount)

		inv := &Invoice{
			Number:              docnum.InvoiceToken(),
			CompanyID:           req.CompanyID,
			CustomerID:          req.CustomerID,
			InvoiceDate:         invoiceDate,
			DueDate:             dueDate,
			Status:              StatusPending,
			DiscountPercent:     discount,
			Subtotal:            totals.Subtotal,
			TaxAmount:           totals.TaxAmount,
			TotalBeforeDiscount: totals.TotalBeforeDiscount,
			DiscountAmount:      totals.DiscountAmount,
			TotalAmount:         totals.TotalAmount,
			PaidAmount:          decimal.Zero,
			OutstandingAmount:   totals.TotalAmount,
			Notes:               req.Notes,
			Items:               items,
		}
		id, err := tx.InsertInvoice(ctx, inv)
		if err != nil {
			return err
		}
		inv.ID = id
		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		slog.Int64("invoice_id", created.ID),
		slog.String("number", created.Number),
		slog.String("total", created.TotalAmount.StringFixed(2)))
	return s.repo.Get(ctx, created.ID, req.CompanyID)
}

// ConvertQuotation turns a DRAFT quotation into an invoice. Lines and
// totals are copied verbatim from the quotation; stock is re-verified
// against current levels because it was never reserved. The quotation is
// flipped to CONVERTED in the same transaction, guarding against a
// second conversion.
func (s *Service) ConvertQuotation(ctx context.Context, companyID, quotationID int64, req ConvertQuotationRequest) (*Invoice, error) {
	q, err := s.quotations.Get(ctx, quotationID, companyID)
	if err != nil {
		return nil, err
	}
	if q.Status != quotations.StatusDraft {
		return nil, shared.BusinessRule("only DRAFT quotations can be converted; %s is %s", q.Number, q.Status)
	}
	if q.InvoiceID != nil {
		return nil, shared.BusinessRule("quotation %s was already converted", q.Number)
	}
	if len(q.Items) == 0 {
		return nil, shared.BusinessRule("quotation %s has no items", q.Number)
	}

	invoiceDate, dueDate := resolveDates(req.InvoiceDate, req.DueDate)

	items := make([]Item, len(q.Items))
	for i, qi := range q.Items {
		items[i] = Item{
			ProductID:   qi.ProductID,
			Description: qi.Description,
			Quantity:    qi.Quantity,
			UnitPrice:   qi.UnitPrice,
			TaxRate:     qi.TaxRate,
			TaxAmount:   qi.TaxAmount,
			LineTotal:   qi.LineTotal,
		}
	}

	var created *Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := checkAndReduce(ctx, tx.Stock(), companyID, items); err != nil {
			return err
		}

		inv := &Invoice{
			Number:              docnum.InvoiceToken(),
			CompanyID:           companyID,
			CustomerID:          q.CustomerID,
			QuotationID:         &q.ID,
			InvoiceDate:         invoiceDate,
			DueDate:             dueDate,
			Status:              StatusPending,
			DiscountPercent:     q.DiscountPercent,
			Subtotal:            q.Subtotal,
			TaxAmount:           q.TaxAmount,
			TotalBeforeDiscount: q.TotalBeforeDiscount,
			DiscountAmount:      q.DiscountAmount,
			TotalAmount:         q.TotalAmount,
			PaidAmount:          decimal.Zero,
			OutstandingAmount:   q.TotalAmount,
			Notes:               q.Notes,
			Items:               items,
		}
		id, err := tx.InsertInvoice(ctx, inv)
		if err != nil {
			return err
		}
		if err := tx.MarkQuotationConverted(ctx, q.ID, companyID, id); err != nil {
			return err
		}
		inv.ID = id
		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quotation converted",
		slog.Int64("quotation_id", q.ID),
		slog.Int64("invoice_id", created.ID),
		slog.String("number", created.Number))
	return s.repo.Get(ctx, created.ID, companyID)
}

// Get returns one invoice with its items.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id, companyID)
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	return s.repo.List(ctx, req)
}
