package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/inventory"
	"github.com/deristok/deristok/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id int64) (Sale, []SaleItem, error)
	ListSales(ctx context.Context, page shared.PageRequest) ([]Sale, int, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards replayed create requests when the caller supplies a key.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service runs the sale workflow: header, lines, stock decrements, movement
// records and the ledger credit, all in one transaction.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	strictStock bool
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// StrictStockMode rejects sales that would drive stock negative. The
	// legacy default allows them.
	StrictStockMode bool
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, cfg ServiceConfig) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, strictStock: cfg.StrictStockMode}
}

// SaleLineInput is one line of a sale request.
type SaleLineInput struct {
	ProductID        int64
	QuantityPieces   int
	QuantityDesi     float64
	UnitPricePerDesi decimal.Decimal
	Unit             string
}

// CreateSaleInput describes a sale request.
type CreateSaleInput struct {
	CustomerID     int64
	Currency       shared.Currency
	PaymentStatus  string
	SaleDate       time.Time
	Notes          string
	Actor          string
	IdempotencyKey string
	Lines          []SaleLineInput
}

// CreateSale validates and posts the sale atomically. Stock for a
// sub-category line is drawn from its parent category's pool item; the
// movement is written against the pool item as well.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (Sale, error) {
	if input.CustomerID == 0 {
		return Sale{}, fmt.Errorf("customer required: %w", shared.ErrValidation)
	}
	if len(input.Lines) == 0 {
		return Sale{}, fmt.Errorf("sale requires at least one line: %w", shared.ErrValidation)
	}
	total := decimal.Zero
	for _, line := range input.Lines {
		if line.ProductID == 0 || line.QuantityPieces <= 0 || line.QuantityDesi < 0 {
			return Sale{}, fmt.Errorf("sale line invalid: %w", shared.ErrValidation)
		}
		if line.UnitPricePerDesi.Sign() < 0 {
			return Sale{}, fmt.Errorf("unit price must not be negative: %w", shared.ErrValidation)
		}
		total = total.Add(LineTotal(line.QuantityDesi, line.UnitPricePerDesi))
	}
	if input.SaleDate.IsZero() {
		input.SaleDate = time.Now()
	}
	if input.PaymentStatus == "" {
		input.PaymentStatus = PaymentStatusPending
	}

	insertedKey := false
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "sales"); err != nil {
			return Sale{}, err
		}
		insertedKey = true
	}

	sale := Sale{
		CustomerID:    input.CustomerID,
		TotalAmount:   total.Round(2),
		Currency:      input.Currency,
		PaymentStatus: input.PaymentStatus,
		SaleDate:      input.SaleDate,
		Notes:         input.Notes,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		saleID, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = saleID
		for _, line := range input.Lines {
			product, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			item := SaleItem{
				SaleID:           saleID,
				ProductID:        product.ID,
				ProductName:      product.Name,
				Color:            product.Color,
				QuantityPieces:   line.QuantityPieces,
				QuantityDesi:     line.QuantityDesi,
				UnitPricePerDesi: line.UnitPricePerDesi.Round(2),
				TotalPrice:       LineTotal(line.QuantityDesi, line.UnitPricePerDesi),
				Unit:             line.Unit,
			}
			if item.Unit == "" {
				item.Unit = product.Unit
			}
			if _, err := tx.InsertSaleItem(ctx, item); err != nil {
				return err
			}

			target := product
			if parentCategory, ok := inventory.ParentCategory(product.Category); ok {
				pool, err := tx.FindCategoryPoolForUpdate(ctx, parentCategory)
				if err != nil {
					if errors.Is(err, shared.ErrNotFound) {
						return inventory.ErrMissingParentStock
					}
					return err
				}
				target = pool
			}

			previous := target.StockQuantity
			newStock := previous - float64(line.QuantityPieces)
			if s.strictStock && newStock < 0 {
				return inventory.ErrInsufficientStock
			}
			movement := inventory.Movement{
				ItemID:         target.ID,
				Kind:           inventory.MovementOut,
				Quantity:       float64(line.QuantityPieces),
				PreviousStock:  previous,
				NewStock:       newStock,
				ReferenceType:  inventory.RefSale,
				ReferenceID:    &saleID,
				CounterpartyID: &input.CustomerID,
				UnitPrice:      item.UnitPricePerDesi,
				TotalAmount:    item.TotalPrice,
				Currency:       input.Currency,
				Notes:          input.Notes,
				Actor:          input.Actor,
				CreatedAt:      time.Now(),
			}
			if _, err := tx.InsertProductMovement(ctx, movement); err != nil {
				return err
			}
			if err := tx.UpdateProductStock(ctx, target.ID, newStock); err != nil {
				return err
			}
		}
		// Receivable grows; no cash transaction is written on the sale path.
		// NOTE: asymmetric vs. the supplier payment path, unconfirmed intent.
		return tx.AdjustBalance(ctx, input.CustomerID, input.Currency, sale.TotalAmount)
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		return Sale{}, err
	}
	s.recordAudit(ctx, input.Actor, "sale:create", sale.ID, map[string]any{
		"customer_id": input.CustomerID,
		"total":       sale.TotalAmount.String(),
		"currency":    string(input.Currency),
	})
	return sale, nil
}

// DeleteSale reverses the sale: stock back, movements gone, ledger debited,
// header and lines removed, all in one transaction. Stock is restored
// directly on each line's product_id without re-resolving the category pool.
// NOTE: asymmetric vs. the create path's substitution, unconfirmed intent.
func (s *Service) DeleteSale(ctx context.Context, id int64, actor string) error {
	sale, items, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, item := range items {
			product, err := tx.GetProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := tx.UpdateProductStock(ctx, product.ID, product.StockQuantity+float64(item.QuantityPieces)); err != nil {
				return err
			}
		}
		if err := tx.DeleteMovementsByReference(ctx, inventory.RefSale, id); err != nil {
			return err
		}
		if err := tx.DeleteSaleItems(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteSale(ctx, id); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, sale.CustomerID, sale.Currency, sale.TotalAmount.Neg())
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "sale:delete", id, map[string]any{
		"customer_id": sale.CustomerID,
		"total":       sale.TotalAmount.String(),
	})
	return nil
}

// GetSale fetches one sale with its lines.
func (s *Service) GetSale(ctx context.Context, id int64) (Sale, []SaleItem, error) {
	return s.repo.GetSale(ctx, id)
}

// ListSales returns a page of sale headers, newest first.
func (s *Service) ListSales(ctx context.Context, page shared.PageRequest) ([]Sale, int, error) {
	return s.repo.ListSales(ctx, page)
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Actor: actor, Action: action, Entity: "sale", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
