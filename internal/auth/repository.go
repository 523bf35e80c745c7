package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deristok/deristok/internal/shared"
)

// Repository persists operators in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetOperatorByUsername(ctx context.Context, username string) (Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, `SELECT id, username, password_hash, display_name, created_at FROM operators WHERE username=$1`, username).
		Scan(&op.ID, &op.Username, &op.PasswordHash, &op.DisplayName, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Operator{}, fmt.Errorf("operator %s: %w", username, shared.ErrNotFound)
		}
		return Operator{}, err
	}
	return op, nil
}

func (r *Repository) CountOperators(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM operators`).Scan(&count)
	return count, err
}

func (r *Repository) InsertOperator(ctx context.Context, op Operator) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO operators (username, password_hash, display_name, created_at) VALUES ($1,$2,$3,NOW()) RETURNING id`,
		op.Username, op.PasswordHash, op.DisplayName).Scan(&id)
	return id, err
}
