package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/ledger"
	"github.com/deristok/deristok/internal/shared"
)

// Repository persists payments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertPayment(ctx context.Context, payment Payment) (int64, error)
	DeletePayment(ctx context.Context, id int64) error
	AdjustBalance(ctx context.Context, counterpartyID int64, currency shared.Currency, delta decimal.Decimal) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("payments repository not initialised")
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

func (r *Repository) GetPayment(ctx context.Context, id int64) (Payment, error) {
	var payment Payment
	var currency string
	err := r.pool.QueryRow(ctx, `SELECT id, counterparty_id, amount, currency, payment_type, payment_date, notes, created_at
FROM payments WHERE id=$1`, id).
		Scan(&payment.ID, &payment.CounterpartyID, &payment.Amount, &currency, &payment.PaymentType, &payment.PaymentDate, &payment.Notes, &payment.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, fmt.Errorf("payment %d: %w", id, shared.ErrNotFound)
		}
		return Payment{}, err
	}
	payment.Currency = shared.Currency(currency)
	return payment, nil
}

func (r *Repository) ListPayments(ctx context.Context, page shared.PageRequest) ([]Payment, int, error) {
	return r.list(ctx, `TRUE`, nil, page)
}

func (r *Repository) ListByCounterparty(ctx context.Context, counterpartyID int64, page shared.PageRequest) ([]Payment, int, error) {
	return r.list(ctx, `counterparty_id=$1`, []any{counterpartyID}, page)
}

func (r *Repository) list(ctx context.Context, cond string, args []any, page shared.PageRequest) ([]Payment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT id, counterparty_id, amount, currency, payment_type, payment_date, notes, created_at
FROM payments WHERE %s ORDER BY payment_date DESC, id DESC LIMIT $%d OFFSET $%d`, cond, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	payments := []Payment{}
	for rows.Next() {
		var payment Payment
		var currency string
		if err := rows.Scan(&payment.ID, &payment.CounterpartyID, &payment.Amount, &currency, &payment.PaymentType, &payment.PaymentDate, &payment.Notes, &payment.CreatedAt); err != nil {
			return nil, 0, err
		}
		payment.Currency = shared.Currency(currency)
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *txRepository) InsertPayment(ctx context.Context, payment Payment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO payments (counterparty_id, amount, currency, payment_type, payment_date, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING id`,
		payment.CounterpartyID, payment.Amount, string(payment.Currency), payment.PaymentType, payment.PaymentDate, payment.Notes).Scan(&id)
	return id, err
}

func (r *txRepository) DeletePayment(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM payments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) AdjustBalance(ctx context.Context, counterpartyID int64, currency shared.Currency, delta decimal.Decimal) error {
	return ledger.AdjustBalanceTx(ctx, r.tx, counterpartyID, currency, delta)
}
