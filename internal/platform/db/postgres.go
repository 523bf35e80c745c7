package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectOptions control the bounded retry performed while acquiring the pool.
// Retries happen only at connection acquisition; a statement whose outcome is
// unknown is never replayed here.
type ConnectOptions struct {
	Attempts int
	Backoff  time.Duration
}

// New creates a new PostgreSQL connection pool.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	return Connect(ctx, dsn, ConnectOptions{Attempts: 1})
}

// Connect creates a pool, pinging with a bounded number of attempts.
func Connect(ctx context.Context, dsn string, opts ConnectOptions) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var pingErr error
	for i := 0; i < attempts; i++ {
		if pingErr = pool.Ping(ctx); pingErr == nil {
			return pool, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	pool.Close()
	return nil, fmt.Errorf("platform/db: ping after %d attempts: %w", attempts, pingErr)
}
