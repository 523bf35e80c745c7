package inventory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/deristok/deristok/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetItem(ctx context.Context, kind ItemKind, id int64) (Item, error)
	ListItems(ctx context.Context, kind ItemKind, page shared.PageRequest) ([]Item, int, error)
	UpdateItem(ctx context.Context, kind ItemKind, item Item) error
	ListMovements(ctx context.Context, kind ItemKind, page shared.PageRequest) ([]Movement, int, error)
	ListMovementsByItem(ctx context.Context, kind ItemKind, itemID int64) ([]Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock-keeping items and their movement logs.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateItemInput describes a new product or material.
type CreateItemInput struct {
	Name          string
	Category      string
	Color         string
	Brand         string
	StockQuantity float64
	Unit          string
	Description   string
	SupplierID    *int64
	SupplierName  string
	Actor         string
}

// CreateItem inserts the item and, when an opening quantity is given, writes
// the initial_stock movement in the same transaction.
func (s *Service) CreateItem(ctx context.Context, kind ItemKind, input CreateItemInput) (Item, error) {
	if input.Name == "" {
		return Item{}, fmt.Errorf("item name required: %w", shared.ErrValidation)
	}
	if input.StockQuantity < 0 {
		return Item{}, fmt.Errorf("opening stock must not be negative: %w", shared.ErrValidation)
	}
	item := Item{
		Name:          input.Name,
		Category:      input.Category,
		Color:         input.Color,
		Brand:         input.Brand,
		StockQuantity: input.StockQuantity,
		Unit:          input.Unit,
		Description:   input.Description,
		SupplierID:    input.SupplierID,
		SupplierName:  input.SupplierName,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertItem(ctx, kind, item)
		if err != nil {
			return err
		}
		item.ID = id
		if input.StockQuantity > 0 {
			movement := Movement{
				ItemID:        id,
				Kind:          MovementIn,
				Quantity:      input.StockQuantity,
				PreviousStock: 0,
				NewStock:      input.StockQuantity,
				ReferenceType: RefInitialStock,
				Currency:      shared.CurrencyTRY,
				Notes:         "opening stock",
				Actor:         input.Actor,
				CreatedAt:     time.Now(),
			}
			if _, err := tx.InsertMovement(ctx, kind, movement); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, input.Actor, fmt.Sprintf("%s:create", kind), item.ID, map[string]any{"name": item.Name})
	return s.repo.GetItem(ctx, kind, item.ID)
}

// UpdateItemInput carries the editable item fields. Stock is not part of it;
// stock changes go through UpdateStock so the movement log stays in step.
type UpdateItemInput struct {
	Name        string
	Category    string
	Color       string
	Brand       string
	Unit        string
	Description string
}

// UpdateItem edits descriptive fields of an item.
func (s *Service) UpdateItem(ctx context.Context, kind ItemKind, id int64, input UpdateItemInput) (Item, error) {
	if input.Name == "" {
		return Item{}, fmt.Errorf("item name required: %w", shared.ErrValidation)
	}
	item, err := s.repo.GetItem(ctx, kind, id)
	if err != nil {
		return Item{}, err
	}
	item.Name = input.Name
	item.Category = input.Category
	item.Color = input.Color
	item.Brand = input.Brand
	item.Unit = input.Unit
	item.Description = input.Description
	if err := s.repo.UpdateItem(ctx, kind, item); err != nil {
		return Item{}, err
	}
	return s.repo.GetItem(ctx, kind, id)
}

// DeleteItem removes the item and cascades its movement log.
func (s *Service) DeleteItem(ctx context.Context, kind ItemKind, id int64, actor string) error {
	if _, err := s.repo.GetItem(ctx, kind, id); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteMovementsByItem(ctx, kind, id); err != nil {
			return err
		}
		return tx.DeleteItem(ctx, kind, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor, fmt.Sprintf("%s:delete", kind), id, nil)
	return nil
}

// GetItem fetches one item.
func (s *Service) GetItem(ctx context.Context, kind ItemKind, id int64) (Item, error) {
	return s.repo.GetItem(ctx, kind, id)
}

// ListItems returns a page of items plus the total count.
func (s *Service) ListItems(ctx context.Context, kind ItemKind, page shared.PageRequest) ([]Item, int, error) {
	return s.repo.ListItems(ctx, kind, page)
}

// UpdateStock sets the authoritative quantity to newQuantity and records the
// delta as a manual_adjustment movement. Manual adjustments are the one path
// allowed to drive stock negative regardless of strict mode.
func (s *Service) UpdateStock(ctx context.Context, kind ItemKind, id int64, newQuantity float64, notes, actor string) (Movement, error) {
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, kind, id)
		if err != nil {
			return err
		}
		delta := newQuantity - item.StockQuantity
		if delta == 0 {
			return fmt.Errorf("stock unchanged: %w", shared.ErrValidation)
		}
		movement = Movement{
			ItemID:        id,
			Kind:          MovementIn,
			Quantity:      math.Abs(delta),
			PreviousStock: item.StockQuantity,
			NewStock:      newQuantity,
			ReferenceType: RefManualAdjustment,
			Currency:      shared.CurrencyTRY,
			Notes:         notes,
			Actor:         actor,
			CreatedAt:     time.Now(),
		}
		if delta < 0 {
			movement.Kind = MovementOut
		}
		movementID, err := tx.InsertMovement(ctx, kind, movement)
		if err != nil {
			return err
		}
		movement.ID = movementID
		return tx.UpdateItemStock(ctx, kind, id, newQuantity)
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, actor, fmt.Sprintf("%s:update-stock", kind), id, map[string]any{"new_stock": newQuantity})
	return movement, nil
}

// MovementInput describes a manually recorded movement. A negative quantity
// from a legacy caller is normalised into a positive quantity with kind "out".
type MovementInput struct {
	ItemID        int64
	Kind          MovementKind
	Quantity      float64
	ReferenceType string
	Notes         string
	Actor         string
}

// RecordMovement appends a movement and applies its delta to the item stock,
// snapshotting previous/new stock inside the same transaction.
func (s *Service) RecordMovement(ctx context.Context, kind ItemKind, input MovementInput) (Movement, error) {
	if input.Quantity < 0 {
		input.Quantity = -input.Quantity
		input.Kind = MovementOut
	}
	if input.Kind == "" {
		input.Kind = MovementIn
	}
	if input.Quantity == 0 {
		return Movement{}, fmt.Errorf("quantity must be non zero: %w", shared.ErrValidation)
	}
	if input.Kind != MovementIn && input.Kind != MovementOut {
		return Movement{}, fmt.Errorf("movement kind must be in or out: %w", shared.ErrValidation)
	}
	if input.ReferenceType == "" {
		input.ReferenceType = RefAdjustment
	}
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, kind, input.ItemID)
		if err != nil {
			return err
		}
		movement = Movement{
			ItemID:        input.ItemID,
			Kind:          input.Kind,
			Quantity:      input.Quantity,
			PreviousStock: item.StockQuantity,
			ReferenceType: input.ReferenceType,
			Currency:      shared.CurrencyTRY,
			Notes:         input.Notes,
			Actor:         input.Actor,
			CreatedAt:     time.Now(),
		}
		movement.NewStock = item.StockQuantity + movement.SignedQuantity()
		movementID, err := tx.InsertMovement(ctx, kind, movement)
		if err != nil {
			return err
		}
		movement.ID = movementID
		return tx.UpdateItemStock(ctx, kind, input.ItemID, movement.NewStock)
	})
	if err != nil {
		return Movement{}, err
	}
	return movement, nil
}

// ListMovements returns the movement log for one kind, newest first.
func (s *Service) ListMovements(ctx context.Context, kind ItemKind, page shared.PageRequest) ([]Movement, int, error) {
	return s.repo.ListMovements(ctx, kind, page)
}

// ListMovementsByItem returns one item's movements, newest first.
func (s *Service) ListMovementsByItem(ctx context.Context, kind ItemKind, itemID int64) ([]Movement, error) {
	return s.repo.ListMovementsByItem(ctx, kind, itemID)
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Actor: actor, Action: action, Entity: "inventory", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
