package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deristok/deristok/internal/shared"
)

// Repository persists items and movement logs in PostgreSQL. Products and
// materials live in separate tables, as do their movement logs; the ItemKind
// selects the pair.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertItem(ctx context.Context, kind ItemKind, item Item) (int64, error)
	GetItemForUpdate(ctx context.Context, kind ItemKind, id int64) (Item, error)
	UpdateItemStock(ctx context.Context, kind ItemKind, id int64, quantity float64) error
	InsertMovement(ctx context.Context, kind ItemKind, movement Movement) (int64, error)
	DeleteMovementsByItem(ctx context.Context, kind ItemKind, itemID int64) error
	DeleteItem(ctx context.Context, kind ItemKind, id int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// ItemTable returns the item table for a kind.
func ItemTable(kind ItemKind) string {
	if kind == KindMaterial {
		return "materials"
	}
	return "products"
}

// MovementTable returns the movement log table for a kind.
func MovementTable(kind ItemKind) string {
	if kind == KindMaterial {
		return "material_movements"
	}
	return "product_movements"
}

// MovementItemColumn returns the owning-item column of the movement log.
func MovementItemColumn(kind ItemKind) string {
	if kind == KindMaterial {
		return "material_id"
	}
	return "product_id"
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
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

func (r *Repository) GetItem(ctx context.Context, kind ItemKind, id int64) (Item, error) {
	query := fmt.Sprintf(`SELECT id, name, category, color, brand, stock_quantity, unit, description, supplier_id, supplier_name, created_at, updated_at
FROM %s WHERE id=$1`, ItemTable(kind))
	return scanItem(r.pool.QueryRow(ctx, query, id))
}

func (r *Repository) ListItems(ctx context.Context, kind ItemKind, page shared.PageRequest) ([]Item, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, ItemTable(kind))).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT id, name, category, color, brand, stock_quantity, unit, description, supplier_id, supplier_name, created_at, updated_at
FROM %s ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2`, ItemTable(kind))
	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) UpdateItem(ctx context.Context, kind ItemKind, item Item) error {
	query := fmt.Sprintf(`UPDATE %s SET name=$2, category=$3, color=$4, brand=$5, unit=$6, description=$7, updated_at=NOW() WHERE id=$1`, ItemTable(kind))
	tag, err := r.pool.Exec(ctx, query, item.ID, item.Name, item.Category, item.Color, item.Brand, item.Unit, item.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", kind, item.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListMovements(ctx context.Context, kind ItemKind, page shared.PageRequest) ([]Movement, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, MovementTable(kind))).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT id, %s, kind, quantity, previous_stock, new_stock, reference_type, reference_id, counterparty_id, unit_price, total_amount, currency, notes, actor, created_at
FROM %s ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, MovementItemColumn(kind), MovementTable(kind))
	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	movements, err := collectMovements(rows)
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

func (r *Repository) ListMovementsByItem(ctx context.Context, kind ItemKind, itemID int64) ([]Movement, error) {
	query := fmt.Sprintf(`SELECT id, %s, kind, quantity, previous_stock, new_stock, reference_type, reference_id, counterparty_id, unit_price, total_amount, currency, notes, actor, created_at
FROM %s WHERE %s=$1 ORDER BY created_at DESC, id DESC`, MovementItemColumn(kind), MovementTable(kind), MovementItemColumn(kind))
	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMovements(rows)
}

func (r *txRepository) InsertItem(ctx context.Context, kind ItemKind, item Item) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO %s (name, category, color, brand, stock_quantity, unit, description, supplier_id, supplier_name, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW()) RETURNING id`, ItemTable(kind))
	var id int64
	err := r.tx.QueryRow(ctx, query, item.Name, item.Category, item.Color, item.Brand, item.StockQuantity, item.Unit, item.Description, item.SupplierID, item.SupplierName).Scan(&id)
	return id, err
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, kind ItemKind, id int64) (Item, error) {
	query := fmt.Sprintf(`SELECT id, name, category, color, brand, stock_quantity, unit, description, supplier_id, supplier_name, created_at, updated_at
FROM %s WHERE id=$1 FOR UPDATE`, ItemTable(kind))
	return scanItem(r.tx.QueryRow(ctx, query, id))
}

func (r *txRepository) UpdateItemStock(ctx context.Context, kind ItemKind, id int64, quantity float64) error {
	query := fmt.Sprintf(`UPDATE %s SET stock_quantity=$2, updated_at=NOW() WHERE id=$1`, ItemTable(kind))
	tag, err := r.tx.Exec(ctx, query, id, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) InsertMovement(ctx context.Context, kind ItemKind, movement Movement) (int64, error) {
	return InsertMovementTx(ctx, r.tx, kind, movement)
}

func (r *txRepository) DeleteMovementsByItem(ctx context.Context, kind ItemKind, itemID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s=$1`, MovementTable(kind), MovementItemColumn(kind))
	_, err := r.tx.Exec(ctx, query, itemID)
	return err
}

func (r *txRepository) DeleteItem(ctx context.Context, kind ItemKind, id int64) error {
	tag, err := r.tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, ItemTable(kind)), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, shared.ErrNotFound)
	}
	return nil
}

// InsertMovementTx writes one movement row inside the caller's transaction.
// The sales and purchase repositories share it so movement rows have one
// writer regardless of which workflow produced them.
func InsertMovementTx(ctx context.Context, tx pgx.Tx, kind ItemKind, movement Movement) (int64, error) {
	createdAt := movement.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, kind, quantity, previous_stock, new_stock, reference_type, reference_id, counterparty_id, unit_price, total_amount, currency, notes, actor, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14) RETURNING id`, MovementTable(kind), MovementItemColumn(kind))
	var id int64
	err := tx.QueryRow(ctx, query,
		movement.ItemID, string(movement.Kind), movement.Quantity, movement.PreviousStock, movement.NewStock,
		movement.ReferenceType, movement.ReferenceID, movement.CounterpartyID,
		movement.UnitPrice, movement.TotalAmount, string(movement.Currency),
		movement.Notes, movement.Actor, createdAt).Scan(&id)
	return id, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Color, &item.Brand, &item.StockQuantity,
		&item.Unit, &item.Description, &item.SupplierID, &item.SupplierName, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, fmt.Errorf("item: %w", shared.ErrNotFound)
		}
		return Item{}, err
	}
	return item, nil
}

func collectMovements(rows pgx.Rows) ([]Movement, error) {
	movements := []Movement{}
	for rows.Next() {
		var m Movement
		var kind, currency string
		if err := rows.Scan(&m.ID, &m.ItemID, &kind, &m.Quantity, &m.PreviousStock, &m.NewStock,
			&m.ReferenceType, &m.ReferenceID, &m.CounterpartyID, &m.UnitPrice, &m.TotalAmount,
			&currency, &m.Notes, &m.Actor, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Kind = MovementKind(kind)
		m.Currency = shared.Currency(currency)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}
