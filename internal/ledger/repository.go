package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/shared"
)

// Repository persists counterparties in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	AdjustBalance(ctx context.Context, id int64, currency shared.Currency, delta decimal.Decimal) error
	DeleteCounterpartyCascade(ctx context.Context, id int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
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

const counterpartyColumns = `id, name, phone, email, address, type, balance, balance_usd, balance_eur, created_at, updated_at`

func (r *Repository) GetCounterparty(ctx context.Context, id int64) (Counterparty, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM counterparties WHERE id=$1`, counterpartyColumns), id)
	return scanCounterparty(row)
}

func (r *Repository) ListCounterparties(ctx context.Context, cpType CounterpartyType, page shared.PageRequest) ([]Counterparty, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM counterparties WHERE ($1 = '' OR type = $1)`, string(cpType)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM counterparties WHERE ($1 = '' OR type = $1) ORDER BY name ASC, id ASC LIMIT $2 OFFSET $3`, counterpartyColumns),
		string(cpType), page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	parties := []Counterparty{}
	for rows.Next() {
		cp, err := scanCounterparty(rows)
		if err != nil {
			return nil, 0, err
		}
		parties = append(parties, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return parties, total, nil
}

func (r *Repository) InsertCounterparty(ctx context.Context, cp Counterparty) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO counterparties (name, phone, email, address, type, balance, balance_usd, balance_eur, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,0,0,0,NOW(),NOW()) RETURNING id`, cp.Name, cp.Phone, cp.Email, cp.Address, string(cp.Type)).Scan(&id)
	return id, err
}

func (r *Repository) UpdateCounterparty(ctx context.Context, cp Counterparty) error {
	tag, err := r.pool.Exec(ctx, `UPDATE counterparties SET name=$2, phone=$3, email=$4, address=$5, updated_at=NOW() WHERE id=$1`,
		cp.ID, cp.Name, cp.Phone, cp.Email, cp.Address)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCounterpartyNotFound
	}
	return nil
}

func (r *txRepository) AdjustBalance(ctx context.Context, id int64, currency shared.Currency, delta decimal.Decimal) error {
	return AdjustBalanceTx(ctx, r.tx, id, currency, delta)
}

// DeleteCounterpartyCascade removes the counterparty together with dependent
// sales (items cascade by FK), payments and the movements and cash
// transactions that reference it. Purchases are left behind on purpose.
// NOTE: asymmetric vs. the sales cascade, unconfirmed intent.
func (r *txRepository) DeleteCounterpartyCascade(ctx context.Context, id int64) error {
	statements := []string{
		`DELETE FROM product_movements WHERE counterparty_id=$1`,
		`DELETE FROM material_movements WHERE counterparty_id=$1`,
		`DELETE FROM cash_transactions WHERE counterparty_id=$1`,
		`DELETE FROM payments WHERE counterparty_id=$1`,
		`DELETE FROM sales WHERE customer_id=$1`,
	}
	for _, stmt := range statements {
		if _, err := r.tx.Exec(ctx, stmt, id); err != nil {
			return err
		}
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM counterparties WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCounterpartyNotFound
	}
	return nil
}

// AdjustBalanceTx applies a signed delta to exactly one currency bucket
// inside the caller's transaction. The sales, purchase and payment
// repositories share it so every ledger write goes through one statement.
func AdjustBalanceTx(ctx context.Context, tx pgx.Tx, id int64, currency shared.Currency, delta decimal.Decimal) error {
	column := currency.BalanceColumn()
	query := fmt.Sprintf(`UPDATE counterparties SET %s = %s + $2, updated_at=NOW() WHERE id=$1`, column, column)
	tag, err := tx.Exec(ctx, query, id, delta.Round(2))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCounterpartyNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCounterparty(row rowScanner) (Counterparty, error) {
	var cp Counterparty
	var cpType string
	err := row.Scan(&cp.ID, &cp.Name, &cp.Phone, &cp.Email, &cp.Address, &cpType,
		&cp.Balance, &cp.BalanceUSD, &cp.BalanceEUR, &cp.CreatedAt, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Counterparty{}, ErrCounterpartyNotFound
		}
		return Counterparty{}, err
	}
	cp.Type = CounterpartyType(cpType)
	return cp, nil
}
