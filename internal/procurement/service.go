package procurement

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
	GetPurchase(ctx context.Context, id int64) (Purchase, []PurchaseItem, error)
	ListPurchases(ctx context.Context, page shared.PageRequest) ([]Purchase, int, error)
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

// Service runs the purchase workflow: header, lines, stock increments,
// movement records and the payable increase, all in one transaction.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem}
}

// PurchaseLineInput is one line of a purchase request.
type PurchaseLineInput struct {
	ItemID    int64
	Quantity  float64
	UnitPrice decimal.Decimal
	Brand     string
}

// CreatePurchaseInput describes a purchase request.
type CreatePurchaseInput struct {
	SupplierID     int64
	Currency       shared.Currency
	PurchaseDate   time.Time
	Notes          string
	Actor          string
	IdempotencyKey string
	Lines          []PurchaseLineInput
}

// CreatePurchase validates and posts the purchase atomically. Each line's
// target is resolved by existence probe, materials first, so a material and a
// legacy product sharing an id never collide. Received materials overwrite
// their cached supplier fields (last purchase wins). The supplier's payable
// grows; no cash transaction is written on this path.
func (s *Service) CreatePurchase(ctx context.Context, input CreatePurchaseInput) (Purchase, error) {
	if input.SupplierID == 0 {
		return Purchase{}, fmt.Errorf("supplier required: %w", shared.ErrValidation)
	}
	if len(input.Lines) == 0 {
		return Purchase{}, fmt.Errorf("purchase requires at least one line: %w", shared.ErrValidation)
	}
	total := decimal.Zero
	for _, line := range input.Lines {
		if line.ItemID == 0 || line.Quantity <= 0 {
			return Purchase{}, fmt.Errorf("purchase line invalid: %w", shared.ErrValidation)
		}
		if line.UnitPrice.Sign() < 0 {
			return Purchase{}, fmt.Errorf("unit price must not be negative: %w", shared.ErrValidation)
		}
		total = total.Add(LineTotal(line.Quantity, line.UnitPrice))
	}
	if input.PurchaseDate.IsZero() {
		input.PurchaseDate = time.Now()
	}

	insertedKey := false
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "purchases"); err != nil {
			return Purchase{}, err
		}
		insertedKey = true
	}

	purchase := Purchase{
		SupplierID:   input.SupplierID,
		TotalAmount:  total.Round(2),
		Currency:     input.Currency,
		Status:       StatusReceived,
		PurchaseDate: input.PurchaseDate,
		Notes:        input.Notes,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		purchaseID, err := tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return err
		}
		purchase.ID = purchaseID
		for _, line := range input.Lines {
			kind := inventory.KindMaterial
			item, err := tx.GetItemForUpdate(ctx, inventory.KindMaterial, line.ItemID)
			if err != nil {
				if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
				kind = inventory.KindProduct
				item, err = tx.GetItemForUpdate(ctx, inventory.KindProduct, line.ItemID)
				if err != nil {
					return err
				}
			}

			brand := line.Brand
			if brand == "" {
				brand = item.Brand
			}
			record := PurchaseItem{
				PurchaseID: purchaseID,
				ItemID:     item.ID,
				ItemName:   item.Name,
				Brand:      brand,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice.Round(2),
				TotalPrice: LineTotal(line.Quantity, line.UnitPrice),
			}
			if _, err := tx.InsertPurchaseItem(ctx, record); err != nil {
				return err
			}

			previous := item.StockQuantity
			newStock := previous + line.Quantity
			if err := tx.UpdateItemStock(ctx, kind, item.ID, newStock); err != nil {
				return err
			}
			if kind == inventory.KindMaterial {
				if err := tx.UpdateMaterialSupplier(ctx, item.ID, input.SupplierID); err != nil {
					return err
				}
			}
			movement := inventory.Movement{
				ItemID:         item.ID,
				Kind:           inventory.MovementIn,
				Quantity:       line.Quantity,
				PreviousStock:  previous,
				NewStock:       newStock,
				ReferenceType:  inventory.RefPurchase,
				ReferenceID:    &purchaseID,
				CounterpartyID: &input.SupplierID,
				UnitPrice:      record.UnitPrice,
				TotalAmount:    record.TotalPrice,
				Currency:       input.Currency,
				Notes:          input.Notes,
				Actor:          input.Actor,
				CreatedAt:      time.Now(),
			}
			if _, err := tx.InsertMovement(ctx, kind, movement); err != nil {
				return err
			}
		}
		// Payable grows; no cash transaction is written at purchase time.
		return tx.AdjustBalance(ctx, input.SupplierID, input.Currency, purchase.TotalAmount)
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		return Purchase{}, err
	}
	s.recordAudit(ctx, input.Actor, "purchase:create", purchase.ID, map[string]any{
		"supplier_id": input.SupplierID,
		"total":       purchase.TotalAmount.String(),
		"currency":    string(input.Currency),
	})
	return purchase, nil
}

// DeletePurchase removes the header (lines cascade by foreign key) and
// decreases the supplier's payable. Stock increments and movement records
// written at receipt time stay in place.
// NOTE: asymmetric vs. sales path, unconfirmed intent.
func (s *Service) DeletePurchase(ctx context.Context, id int64, actor string) error {
	purchase, _, err := s.repo.GetPurchase(ctx, id)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeletePurchase(ctx, id); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, purchase.SupplierID, purchase.Currency, purchase.TotalAmount.Neg())
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "purchase:delete", id, map[string]any{
		"supplier_id": purchase.SupplierID,
		"total":       purchase.TotalAmount.String(),
	})
	return nil
}

// GetPurchase fetches one purchase with its lines.
func (s *Service) GetPurchase(ctx context.Context, id int64) (Purchase, []PurchaseItem, error) {
	return s.repo.GetPurchase(ctx, id)
}

// ListPurchases returns a page of purchase headers, newest first.
func (s *Service) ListPurchases(ctx context.Context, page shared.PageRequest) ([]Purchase, int, error) {
	return s.repo.ListPurchases(ctx, page)
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Actor: actor, Action: action, Entity: "purchase", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
