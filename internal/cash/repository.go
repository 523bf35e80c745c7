package cash

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deristok/deristok/internal/shared"
)

// Repository persists cash transactions in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListFilter narrows ListTransactions.
type ListFilter struct {
	Direction Direction
	Category  string
	Currency  shared.Currency
	From      time.Time
	To        time.Time
}

func (r *Repository) InsertTransaction(ctx context.Context, txn Transaction) (int64, error) {
	createdAt := txn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO cash_transactions (type, amount, currency, category, description, reference_type, reference_id, counterparty_id, actor, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		string(txn.Direction), txn.Amount, string(txn.Currency), txn.Category, txn.Description,
		txn.ReferenceType, txn.ReferenceID, txn.CounterpartyID, txn.Actor, createdAt).Scan(&id)
	return id, err
}

func (r *Repository) UpdateTransaction(ctx context.Context, txn Transaction) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cash_transactions
SET type=$2, amount=$3, currency=$4, category=$5, description=$6 WHERE id=$1`,
		txn.ID, string(txn.Direction), txn.Amount, string(txn.Currency), txn.Category, txn.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cash transaction %d: %w", txn.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cash_transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cash transaction %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// DeleteByReference removes transactions written by another workflow under a
// reference tag. Zero rows is not an error: the paired record may never have
// been written.
func (r *Repository) DeleteByReference(ctx context.Context, referenceType string, referenceID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cash_transactions WHERE reference_type=$1 AND reference_id=$2`, referenceType, referenceID)
	return err
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, `SELECT id, type, amount, currency, category, description, reference_type, reference_id, counterparty_id, actor, created_at
FROM cash_transactions WHERE id=$1`, id))
}

func (r *Repository) ListTransactions(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Transaction, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Direction != "" {
		where = append(where, "type="+arg(string(filter.Direction)))
	}
	if filter.Category != "" {
		where = append(where, "category="+arg(filter.Category))
	}
	if filter.Currency != "" {
		where = append(where, "currency="+arg(string(filter.Currency)))
	}
	if !filter.From.IsZero() {
		where = append(where, "created_at >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "created_at < "+arg(filter.To))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cash_transactions WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT id, type, amount, currency, category, description, reference_type, reference_id, counterparty_id, actor, created_at
FROM cash_transactions WHERE %s ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s`, cond, arg(page.Limit), arg(page.Offset()))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	txns := []Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var txn Transaction
	var direction, currency string
	err := row.Scan(&txn.ID, &direction, &txn.Amount, &currency, &txn.Category, &txn.Description,
		&txn.ReferenceType, &txn.ReferenceID, &txn.CounterpartyID, &txn.Actor, &txn.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, fmt.Errorf("cash transaction: %w", shared.ErrNotFound)
		}
		return Transaction{}, err
	}
	txn.Direction = Direction(direction)
	txn.Currency = shared.Currency(currency)
	return txn, nil
}
