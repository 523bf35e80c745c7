package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/inventory"
	"github.com/deristok/deristok/internal/ledger"
	"github.com/deristok/deristok/internal/shared"
)

// Repository persists purchases in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertPurchase(ctx context.Context, purchase Purchase) (int64, error)
	InsertPurchaseItem(ctx context.Context, item PurchaseItem) (int64, error)
	GetItemForUpdate(ctx context.Context, kind inventory.ItemKind, id int64) (inventory.Item, error)
	UpdateItemStock(ctx context.Context, kind inventory.ItemKind, id int64, quantity float64) error
	UpdateMaterialSupplier(ctx context.Context, materialID, supplierID int64) error
	InsertMovement(ctx context.Context, kind inventory.ItemKind, movement inventory.Movement) (int64, error)
	DeletePurchase(ctx context.Context, purchaseID int64) error
	AdjustBalance(ctx context.Context, counterpartyID int64, currency shared.Currency, delta decimal.Decimal) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("procurement repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetPurchase(ctx context.Context, id int64) (Purchase, []PurchaseItem, error) {
	var purchase Purchase
	var currency string
	err := r.pool.QueryRow(ctx, `SELECT id, supplier_id, total_amount, currency, status, purchase_date, notes, created_at FROM purchases WHERE id=$1`, id).
		Scan(&purchase.ID, &purchase.SupplierID, &purchase.TotalAmount, &currency, &purchase.Status, &purchase.PurchaseDate, &purchase.Notes, &purchase.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, nil, fmt.Errorf("purchase %d: %w", id, shared.ErrNotFound)
		}
		return Purchase{}, nil, err
	}
	purchase.Currency = shared.Currency(currency)

	rows, err := r.pool.Query(ctx, `SELECT id, purchase_id, item_id, item_name, brand, quantity, unit_price, total_price
FROM purchase_items WHERE purchase_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Purchase{}, nil, err
	}
	defer rows.Close()
	items := []PurchaseItem{}
	for rows.Next() {
		var item PurchaseItem
		if err := rows.Scan(&item.ID, &item.PurchaseID, &item.ItemID, &item.ItemName, &item.Brand,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return Purchase{}, nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return Purchase{}, nil, err
	}
	return purchase, items, nil
}

func (r *Repository) ListPurchases(ctx context.Context, page shared.PageRequest) ([]Purchase, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, supplier_id, total_amount, currency, status, purchase_date, notes, created_at
FROM purchases ORDER BY purchase_date DESC, id DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	purchases := []Purchase{}
	for rows.Next() {
		var purchase Purchase
		var currency string
		if err := rows.Scan(&purchase.ID, &purchase.SupplierID, &purchase.TotalAmount, &currency, &purchase.Status, &purchase.PurchaseDate, &purchase.Notes, &purchase.CreatedAt); err != nil {
			return nil, 0, err
		}
		purchase.Currency = shared.Currency(currency)
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return purchases, total, nil
}

func (r *txRepository) InsertPurchase(ctx context.Context, purchase Purchase) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchases (supplier_id, total_amount, currency, status, purchase_date, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING id`,
		purchase.SupplierID, purchase.TotalAmount, string(purchase.Currency), purchase.Status, purchase.PurchaseDate, purchase.Notes).Scan(&id)
	return id, err
}

func (r *txRepository) InsertPurchaseItem(ctx context.Context, item PurchaseItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_items (purchase_id, item_id, item_name, brand, quantity, unit_price, total_price)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		item.PurchaseID, item.ItemID, item.ItemName, item.Brand, item.Quantity, item.UnitPrice, item.TotalPrice).Scan(&id)
	return id, err
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, kind inventory.ItemKind, id int64) (inventory.Item, error) {
	query := fmt.Sprintf(`SELECT id, name, category, color, brand, stock_quantity, unit, description, supplier_id, supplier_name, created_at, updated_at
FROM %s WHERE id=$1 FOR UPDATE`, inventory.ItemTable(kind))
	var item inventory.Item
	err := r.tx.QueryRow(ctx, query, id).Scan(&item.ID, &item.Name, &item.Category, &item.Color, &item.Brand,
		&item.StockQuantity, &item.Unit, &item.Description, &item.SupplierID, &item.SupplierName, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Item{}, fmt.Errorf("%s %d: %w", kind, id, shared.ErrNotFound)
		}
		return inventory.Item{}, err
	}
	return item, nil
}

func (r *txRepository) UpdateItemStock(ctx context.Context, kind inventory.ItemKind, id int64, quantity float64) error {
	query := fmt.Sprintf(`UPDATE %s SET stock_quantity=$2, updated_at=NOW() WHERE id=$1`, inventory.ItemTable(kind))
	tag, err := r.tx.Exec(ctx, query, id, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, shared.ErrNotFound)
	}
	return nil
}

// UpdateMaterialSupplier overwrites the material's cached supplier fields.
// Last purchase wins.
func (r *txRepository) UpdateMaterialSupplier(ctx context.Context, materialID, supplierID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE materials
SET supplier_id=$2, supplier_name=COALESCE((SELECT name FROM counterparties WHERE id=$2), supplier_name), updated_at=NOW()
WHERE id=$1`, materialID, supplierID)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, kind inventory.ItemKind, movement inventory.Movement) (int64, error) {
	return inventory.InsertMovementTx(ctx, r.tx, kind, movement)
}

func (r *txRepository) DeletePurchase(ctx context.Context, purchaseID int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM purchases WHERE id=$1`, purchaseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase %d: %w", purchaseID, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) AdjustBalance(ctx context.Context, counterpartyID int64, currency shared.Currency, delta decimal.Decimal) error {
	return ledger.AdjustBalanceTx(ctx, r.tx, counterpartyID, currency, delta)
}
