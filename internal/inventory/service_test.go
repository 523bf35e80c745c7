package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deristok/deristok/internal/shared"
)

type memoryInventoryRepo struct {
	items     map[ItemKind]map[int64]Item
	movements map[ItemKind][]Movement
	nextID    int64
}

type memoryInventoryTx struct {
	repo *memoryInventoryRepo
}

func newMemoryInventoryRepo() *memoryInventoryRepo {
	return &memoryInventoryRepo{
		items: map[ItemKind]map[int64]Item{
			KindProduct:  {},
			KindMaterial: {},
		},
		movements: map[ItemKind][]Movement{},
	}
}

func (r *memoryInventoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryInventoryTx{repo: r})
}

func (r *memoryInventoryRepo) GetItem(ctx context.Context, kind ItemKind, id int64) (Item, error) {
	item, ok := r.items[kind][id]
	if !ok {
		return Item{}, fmt.Errorf("%s %d: %w", kind, id, shared.ErrNotFound)
	}
	return item, nil
}

func (r *memoryInventoryRepo) ListItems(ctx context.Context, kind ItemKind, page shared.PageRequest) ([]Item, int, error) {
	items := make([]Item, 0, len(r.items[kind]))
	for _, item := range r.items[kind] {
		items = append(items, item)
	}
	return items, len(items), nil
}

func (r *memoryInventoryRepo) UpdateItem(ctx context.Context, kind ItemKind, item Item) error {
	if _, ok := r.items[kind][item.ID]; !ok {
		return fmt.Errorf("%s %d: %w", kind, item.ID, shared.ErrNotFound)
	}
	r.items[kind][item.ID] = item
	return nil
}

func (r *memoryInventoryRepo) ListMovements(ctx context.Context, kind ItemKind, page shared.PageRequest) ([]Movement, int, error) {
	movements := append([]Movement(nil), r.movements[kind]...)
	return movements, len(movements), nil
}

func (r *memoryInventoryRepo) ListMovementsByItem(ctx context.Context, kind ItemKind, itemID int64) ([]Movement, error) {
	movements := []Movement{}
	for _, m := range r.movements[kind] {
		if m.ItemID == itemID {
			movements = append(movements, m)
		}
	}
	return movements, nil
}

func (t *memoryInventoryTx) InsertItem(ctx context.Context, kind ItemKind, item Item) (int64, error) {
	t.repo.nextID++
	item.ID = t.repo.nextID
	t.repo.items[kind][item.ID] = item
	return item.ID, nil
}

func (t *memoryInventoryTx) GetItemForUpdate(ctx context.Context, kind ItemKind, id int64) (Item, error) {
	return t.repo.GetItem(ctx, kind, id)
}

func (t *memoryInventoryTx) UpdateItemStock(ctx context.Context, kind ItemKind, id int64, quantity float64) error {
	item, ok := t.repo.items[kind][id]
	if !ok {
		return fmt.Errorf("%s %d: %w", kind, id, shared.ErrNotFound)
	}
	item.StockQuantity = quantity
	t.repo.items[kind][id] = item
	return nil
}

func (t *memoryInventoryTx) InsertMovement(ctx context.Context, kind ItemKind, movement Movement) (int64, error) {
	t.repo.nextID++
	movement.ID = t.repo.nextID
	t.repo.movements[kind] = append(t.repo.movements[kind], movement)
	return movement.ID, nil
}

func (t *memoryInventoryTx) DeleteMovementsByItem(ctx context.Context, kind ItemKind, itemID int64) error {
	kept := t.repo.movements[kind][:0]
	for _, m := range t.repo.movements[kind] {
		if m.ItemID != itemID {
			kept = append(kept, m)
		}
	}
	t.repo.movements[kind] = kept
	return nil
}

func (t *memoryInventoryTx) DeleteItem(ctx context.Context, kind ItemKind, id int64) error {
	if _, ok := t.repo.items[kind][id]; !ok {
		return fmt.Errorf("%s %d: %w", kind, id, shared.ErrNotFound)
	}
	delete(t.repo.items[kind], id)
	return nil
}

func TestCreateItemWritesOpeningMovement(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, nil)

	item, err := svc.CreateItem(context.Background(), KindProduct, CreateItemInput{
		Name:          "el cantasi",
		Category:      "canta",
		StockQuantity: 12,
		Unit:          "adet",
	})
	require.NoError(t, err)
	require.InDelta(t, 12, item.StockQuantity, 1e-9)

	movements := repo.movements[KindProduct]
	require.Len(t, movements, 1)
	require.Equal(t, MovementIn, movements[0].Kind)
	require.Equal(t, RefInitialStock, movements[0].ReferenceType)
	require.InDelta(t, 12, movements[0].Quantity, 1e-9)
}

func TestCreateItemWithoutOpeningStock(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.CreateItem(context.Background(), KindMaterial, CreateItemInput{Name: "vidala deri"})
	require.NoError(t, err)
	require.Empty(t, repo.movements[KindMaterial])
}

func TestCreateItemValidation(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.CreateItem(context.Background(), KindProduct, CreateItemInput{})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateItem(context.Background(), KindProduct, CreateItemInput{Name: "x", StockQuantity: -1})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateStockRecordsManualAdjustment(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, nil)

	item, err := svc.CreateItem(context.Background(), KindProduct, CreateItemInput{Name: "kemer", StockQuantity: 10})
	require.NoError(t, err)

	movement, err := svc.UpdateStock(context.Background(), KindProduct, item.ID, 4, "sayim", "tester")
	require.NoError(t, err)
	require.Equal(t, MovementOut, movement.Kind)
	require.InDelta(t, 6, movement.Quantity, 1e-9)
	require.Equal(t, RefManualAdjustment, movement.ReferenceType)
	require.InDelta(t, 4, repo.items[KindProduct][item.ID].StockQuantity, 1e-9)

	// Manual adjustment may go below zero.
	movement, err = svc.UpdateStock(context.Background(), KindProduct, item.ID, -2, "fire", "tester")
	require.NoError(t, err)
	require.Equal(t, MovementOut, movement.Kind)
	require.InDelta(t, -2, repo.items[KindProduct][item.ID].StockQuantity, 1e-9)
}

func TestUpdateStockRejectsNoChange(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, nil)

	item, err := svc.CreateItem(context.Background(), KindProduct, CreateItemInput{Name: "kemer", StockQuantity: 5})
	require.NoError(t, err)

	_, err = svc.UpdateStock(context.Background(), KindProduct, item.ID, 5, "", "tester")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordMovementNormalisesSignedQuantity(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, nil)

	item, err := svc.CreateItem(context.Background(), KindMaterial, CreateItemInput{Name: "kosele", StockQuantity: 10})
	require.NoError(t, err)

	movement, err := svc.RecordMovement(context.Background(), KindMaterial, MovementInput{
		ItemID:   item.ID,
		Quantity: -3,
	})
	require.NoError(t, err)
	require.Equal(t, MovementOut, movement.Kind)
	require.InDelta(t, 3, movement.Quantity, 1e-9)
	require.InDelta(t, 7, movement.NewStock, 1e-9)
	require.Equal(t, RefAdjustment, movement.ReferenceType)
	require.InDelta(t, 7, repo.items[KindMaterial][item.ID].StockQuantity, 1e-9)
}

func TestRecordMovementDefaultsToIn(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, nil)

	item, err := svc.CreateItem(context.Background(), KindMaterial, CreateItemInput{Name: "kosele", StockQuantity: 1})
	require.NoError(t, err)

	movement, err := svc.RecordMovement(context.Background(), KindMaterial, MovementInput{
		ItemID:   item.ID,
		Quantity: 2.5,
	})
	require.NoError(t, err)
	require.Equal(t, MovementIn, movement.Kind)
	require.InDelta(t, 3.5, movement.NewStock, 1e-9)
}

func TestRecordMovementValidation(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.RecordMovement(context.Background(), KindProduct, MovementInput{ItemID: 1, Quantity: 0})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordMovement(context.Background(), KindProduct, MovementInput{ItemID: 1, Quantity: 1, Kind: "sideways"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteItemCascadesMovements(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, nil)

	item, err := svc.CreateItem(context.Background(), KindProduct, CreateItemInput{Name: "kemer", StockQuantity: 5})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(context.Background(), KindProduct, item.ID, "tester"))
	require.Empty(t, repo.items[KindProduct])
	require.Empty(t, repo.movements[KindProduct])
}

func TestParentCategoryMapping(t *testing.T) {
	for sub, parent := range map[string]string{
		"erkek cuzdan": "cuzdan",
		"Bayan Cuzdan": "cuzdan",
		"kartlik":      "cuzdan",
		"klasik kemer": "kemer",
		"spor kemer":   "kemer",
	} {
		got, ok := ParentCategory(sub)
		require.True(t, ok, sub)
		require.Equal(t, parent, got)
	}

	_, ok := ParentCategory("canta")
	require.False(t, ok)
}

func TestSignedQuantity(t *testing.T) {
	require.InDelta(t, 4, Movement{Kind: MovementIn, Quantity: 4}.SignedQuantity(), 1e-9)
	require.InDelta(t, -4, Movement{Kind: MovementOut, Quantity: 4}.SignedQuantity(), 1e-9)
}
