package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

// PoolOptions tunes the connection pool beyond what the DSN carries.
type PoolOptions struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// New opens the PostgreSQL pool and checks it with a ping. An unreachable server is
// reported as shared.ErrStoreUnavailable.
func New(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MaxConnLifetime > 0 {
		config.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: platform/db: ping: %w", shared.ErrStoreUnavailable, err)
	}

	return pool, nil
}
