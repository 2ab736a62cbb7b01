// Package postgres implements the transaction and scoring-run stores on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"stablecoin-risk-monitor/internal/storage"
)

// ApplicationName tags the service's sessions in pg_stat_activity.
const ApplicationName = "stablecoin-risk-monitor"

// Pool is the shared pgx pool behind both Postgres stores.
type Pool struct {
	*pgxpool.Pool
}

// PoolOption adjusts the parsed pool config before connecting.
type PoolOption func(*pgxpool.Config)

// WithMaxConns caps the pool size. Ingest batches and the scheduler's
// reads rarely need more than a handful of connections.
func WithMaxConns(n int32) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// WithConnectTimeout bounds each dial.
func WithConnectTimeout(d time.Duration) PoolOption {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.ConnConfig.ConnectTimeout = d
		}
	}
}

// NewPool connects to dsn and verifies the server answers.
func NewPool(ctx context.Context, dsn string, opts ...PoolOption) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}
	cfg.HealthCheckPeriod = 30 * time.Second
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", cfg.ConnConfig.Host, err)
	}
	return &Pool{Pool: pool}, nil
}

func (p *Pool) Close() {
	p.Pool.Close()
}

// SQLSTATE unique_violation.
const pgErrUniqueViolation = "23505"

// translateError maps driver errors onto the storage sentinels so callers
// see the same errors as with the memory backend. what names the record.
func translateError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return storage.Duplicatef("%s (%s)", what, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", what, err)
}
