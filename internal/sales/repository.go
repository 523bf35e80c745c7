package sales

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

// Repository persists sales in PostgreSQL. The workflow statements for stock
// and ledger updates run on the same transaction as the header and lines.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertSaleItem(ctx context.Context, item SaleItem) (int64, error)
	GetProductForUpdate(ctx context.Context, id int64) (inventory.Item, error)
	FindCategoryPoolForUpdate(ctx context.Context, category string) (inventory.Item, error)
	UpdateProductStock(ctx context.Context, id int64, quantity float64) error
	InsertProductMovement(ctx context.Context, movement inventory.Movement) (int64, error)
	DeleteMovementsByReference(ctx context.Context, referenceType string, referenceID int64) error
	DeleteSaleItems(ctx context.Context, saleID int64) error
	DeleteSale(ctx context.Context, saleID int64) error
	AdjustBalance(ctx context.Context, counterpartyID int64, currency shared.Currency, delta decimal.Decimal) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
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

func (r *Repository) GetSale(ctx context.Context, id int64) (Sale, []SaleItem, error) {
	var sale Sale
	var currency string
	err := r.pool.QueryRow(ctx, `SELECT id, customer_id, total_amount, currency, payment_status, sale_date, notes, created_at FROM sales WHERE id=$1`, id).
		Scan(&sale.ID, &sale.CustomerID, &sale.TotalAmount, &currency, &sale.PaymentStatus, &sale.SaleDate, &sale.Notes, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, nil, fmt.Errorf("sale %d: %w", id, shared.ErrNotFound)
		}
		return Sale{}, nil, err
	}
	sale.Currency = shared.Currency(currency)

	rows, err := r.pool.Query(ctx, `SELECT id, sale_id, product_id, product_name, color, quantity_pieces, quantity_desi, unit_price_per_desi, total_price, unit
FROM sale_items WHERE sale_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Sale{}, nil, err
	}
	defer rows.Close()
	items := []SaleItem{}
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Color,
			&item.QuantityPieces, &item.QuantityDesi, &item.UnitPricePerDesi, &item.TotalPrice, &item.Unit); err != nil {
			return Sale{}, nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return Sale{}, nil, err
	}
	return sale, items, nil
}

func (r *Repository) ListSales(ctx context.Context, page shared.PageRequest) ([]Sale, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, customer_id, total_amount, currency, payment_status, sale_date, notes, created_at
FROM sales ORDER BY sale_date DESC, id DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	sales := []Sale{}
	for rows.Next() {
		var sale Sale
		var currency string
		if err := rows.Scan(&sale.ID, &sale.CustomerID, &sale.TotalAmount, &currency, &sale.PaymentStatus, &sale.SaleDate, &sale.Notes, &sale.CreatedAt); err != nil {
			return nil, 0, err
		}
		sale.Currency = shared.Currency(currency)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (customer_id, total_amount, currency, payment_status, sale_date, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING id`,
		sale.CustomerID, sale.TotalAmount, string(sale.Currency), sale.PaymentStatus, sale.SaleDate, sale.Notes).Scan(&id)
	return id, err
}

func (r *txRepository) InsertSaleItem(ctx context.Context, item SaleItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sale_items (sale_id, product_id, product_name, color, quantity_pieces, quantity_desi, unit_price_per_desi, total_price, unit)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		item.SaleID, item.ProductID, item.ProductName, item.Color, item.QuantityPieces, item.QuantityDesi, item.UnitPricePerDesi, item.TotalPrice, item.Unit).Scan(&id)
	return id, err
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id int64) (inventory.Item, error) {
	return scanProduct(r.tx.QueryRow(ctx, `SELECT id, name, category, color, brand, stock_quantity, unit, description, created_at, updated_at
FROM products WHERE id=$1 FOR UPDATE`, id))
}

// FindCategoryPoolForUpdate locks the pool item of a parent category: the
// oldest product in that category holds the shared physical stock.
func (r *txRepository) FindCategoryPoolForUpdate(ctx context.Context, category string) (inventory.Item, error) {
	return scanProduct(r.tx.QueryRow(ctx, `SELECT id, name, category, color, brand, stock_quantity, unit, description, created_at, updated_at
FROM products WHERE LOWER(category)=LOWER($1) ORDER BY id ASC LIMIT 1 FOR UPDATE`, category))
}

func (r *txRepository) UpdateProductStock(ctx context.Context, id int64, quantity float64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET stock_quantity=$2, updated_at=NOW() WHERE id=$1`, id, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) InsertProductMovement(ctx context.Context, movement inventory.Movement) (int64, error) {
	return inventory.InsertMovementTx(ctx, r.tx, inventory.KindProduct, movement)
}

func (r *txRepository) DeleteMovementsByReference(ctx context.Context, referenceType string, referenceID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM product_movements WHERE reference_type=$1 AND reference_id=$2`, referenceType, referenceID)
	return err
}

func (r *txRepository) DeleteSaleItems(ctx context.Context, saleID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id=$1`, saleID)
	return err
}

func (r *txRepository) DeleteSale(ctx context.Context, saleID int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM sales WHERE id=$1`, saleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sale %d: %w", saleID, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) AdjustBalance(ctx context.Context, counterpartyID int64, currency shared.Currency, delta decimal.Decimal) error {
	return ledger.AdjustBalanceTx(ctx, r.tx, counterpartyID, currency, delta)
}

func scanProduct(row pgx.Row) (inventory.Item, error) {
	var item inventory.Item
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Color, &item.Brand, &item.StockQuantity,
		&item.Unit, &item.Description, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Item{}, fmt.Errorf("product: %w", shared.ErrNotFound)
		}
		return inventory.Item{}, err
	}
	return item, nil
}
