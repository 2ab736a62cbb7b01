// Package backend opens the configured set of stores.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"stablecoin-risk-monitor/internal/storage"
	chstore "stablecoin-risk-monitor/internal/storage/clickhouse"
	"stablecoin-risk-monitor/internal/storage/memory"
	"stablecoin-risk-monitor/internal/storage/migrations"
	pgstore "stablecoin-risk-monitor/internal/storage/postgres"
)

// Backend kinds reported by Stores.Kind.
const (
	KindMemory   = "memory"
	KindPostgres = "postgres"
	KindHybrid   = "postgres+clickhouse"
)

// Options selects and configures the backend.
type Options struct {
	PostgresDSN      string
	PostgresMaxConns int32 // 0 keeps the pgx default
	ClickhouseDSN    string
	UseMemory        bool
	Migrate          bool // apply embedded migrations after connecting
}

// Stores holds all storage implementations.
type Stores struct {
	Transactions storage.TransactionStore
	Runs         storage.ScoringRunStore
	Scores       storage.RiskScoreStore
	Kind         string

	cleanup []func()
}

// Close releases connections in reverse open order.
func (s *Stores) Close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.cleanup = nil
}

// Memory returns in-memory stores.
func Memory() *Stores {
	return &Stores{
		Transactions: memory.NewTransactionStore(),
		Runs:         memory.NewScoringRunStore(),
		Scores:       memory.NewRiskScoreStore(),
		Kind:         KindMemory,
	}
}

// Open creates the stores described by opts. Without a Postgres DSN, or
// with UseMemory set, everything is in memory. Without a ClickHouse DSN,
// risk scores stay in memory while transactions and runs use Postgres.
func Open(ctx context.Context, opts Options, logger logrus.FieldLogger) (*Stores, error) {
	if opts.UseMemory || opts.PostgresDSN == "" {
		logger.Info("using in-memory storage")
		return Memory(), nil
	}

	s := &Stores{}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, opts.PostgresDSN,
		pgstore.WithMaxConns(opts.PostgresMaxConns),
		pgstore.WithConnectTimeout(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	s.cleanup = append(s.cleanup, pool.Close)

	if opts.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}
	s.Transactions = pgstore.NewTransactionStore(pool)
	s.Runs = pgstore.NewScoringRunStore(pool)

	if opts.ClickhouseDSN == "" {
		logger.Warn("CLICKHOUSE_DSN not set, risk scores are kept in memory")
		s.Scores = memory.NewRiskScoreStore()
		s.Kind = KindPostgres
		return s, nil
	}

	// ClickHouse
	if opts.Migrate {
		if err := chstore.EnsureDatabase(ctx, opts.ClickhouseDSN); err != nil {
			s.Close()
			return nil, err
		}
	}
	conn, err := chstore.NewConn(ctx, opts.ClickhouseDSN)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.cleanup = append(s.cleanup, func() { _ = conn.Close() })

	if opts.Migrate {
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
	}
	s.Scores = chstore.NewRiskScoreStore(conn)
	s.Kind = KindHybrid

	logger.WithField("kind", s.Kind).Info("connected to storage")
	return s, nil
}
