package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict marks a replayed request key. It wraps ErrConflict so
// the HTTP layer answers 409.
var ErrIdempotencyConflict = fmt.Errorf("request already processed: %w", ErrConflict)

// IdempotencyStore persists processed request keys. Workflow creates accept an
// optional client key; when one is supplied a replayed request is rejected
// instead of double-applied.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// CheckAndInsert claims the key for the given module. A duplicate key returns
// ErrIdempotencyConflict via the unique-violation code.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" || module == "" {
		return fmt.Errorf("idempotency key and module required: %w", ErrValidation)
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (key, module) VALUES ($1, $2)`, key, module)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Cleanup removes keys older than the retention window.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, time.Now().Add(-olderThan))
	return err
}

// Delete releases a claimed key after the guarded transaction failed, so the
// client may retry with the same key.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if s == nil || key == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key)
	return err
}
