package purchaseorders

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyforge/tallyforge/internal/inventory"
	"github.com/tallyforge/tallyforge/internal/masterdata/companies"
	"github.com/tallyforge/tallyforge/internal/money"
	"github.com/tallyforge/tallyforge/internal/shared"
)

// Service books purchased goods into stock. Stock increases the moment
// the order is created, priced at the product's current cost price; a
// soft delete reverses the movement.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	companies companies.Repository
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo Repository, comp companies.Repository) *Service {
	return &Service{logger: logger, repo: repo, companies: comp}
}

// Create persists the order and increases stock for every line in one
// transaction.
func (s *Service) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrder, error) {
	if _, err := s.companies.GetActive(ctx, req.CompanyID); err != nil {
		return nil, err
	}

	orderDate := time.Now()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, req.CompanyID, orderDate)
		if err != nil {
			return err
		}

		items := make([]Item, 0, len(req.Items))
		total := decimal.Zero
		for _, ir := range req.Items {
			p, err := tx.Stock().GetForUpdate(ctx, ir.ProductID, req.CompanyID)
			if err != nil {
				return err
			}
			if !p.IsStocked() {
				return shared.BusinessRule("product %q is a service and cannot be purchased into stock", p.Name)
			}
			lineTotal := money.Round2(p.CostPrice.Mul(decimal.NewFromInt(ir.Quantity)))
			items = append(items, Item{
				ProductID: p.ID,
				Quantity:  ir.Quantity,
				UnitCost:  p.CostPrice,
				LineTotal: lineTotal,
			})
			total = total.Add(lineTotal)

			newStock := inventory.IncreaseStock(p, ir.Quantity)
			if err := tx.Stock().UpdateStock(ctx, p.ID, req.CompanyID, newStock); err != nil {
				return err
			}
		}

		po := &PurchaseOrder{
			Number:       number,
			CompanyID:    req.CompanyID,
			SupplierName: req.SupplierName,
			OrderDate:    orderDate,
			Notes:        req.Notes,
			TotalAmount:  total,
			Items:        items,
		}
		orderID, err = tx.InsertOrder(ctx, po)
		return err
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Get(ctx, orderID, req.CompanyID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("purchase order created",
		slog.Int64("purchase_order_id", created.ID),
		slog.String("number", created.Number),
		slog.String("total", created.TotalAmount.StringFixed(2)))
	return created, nil
}

// SoftDelete hides the order and takes its quantities back out of
// stock, clamping at zero if the goods were already sold on.
func (s *Service) SoftDelete(ctx context.Context, companyID, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetOrderForUpdate(ctx, id, companyID)
		if err != nil {
			return err
		}
		for _, it := range po.Items {
			p, err := tx.Stock().GetForUpdate(ctx, it.ProductID, companyID)
			if err != nil {
				return err
			}
			newStock := inventory.ReduceStock(p, it.Quantity)
			if err := tx.Stock().UpdateStock(ctx, p.ID, companyID, newStock); err != nil {
				return err
			}
		}
		return tx.MarkDeleted(ctx, po.ID, companyID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("purchase order deleted", slog.Int64("purchase_order_id", id))
	return nil
}

// Get returns one purchase order with its items.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*PurchaseOrder, error) {
	return s.repo.Get(ctx, id, companyID)
}

// ListRecent returns the newest purchase orders for a company.
func (s *Service) ListRecent(ctx context.Context, companyID int64, limit int) ([]PurchaseOrder, error) {
	return s.repo.ListRecent(ctx, companyID, limit)
}
