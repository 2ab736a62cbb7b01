// Package storage defines persistence interfaces for transactions, scoring
// runs and per-run risk scores. Implementations live in memory/, postgres/
// and clickhouse/.
package storage

import (
	"context"
	"time"

	"stablecoin-risk-monitor/internal/domain"
)

// TransactionStore provides access to the raw transactions table.
type TransactionStore interface {
	// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate tx_id.
	InsertBulk(ctx context.Context, txs []domain.Transaction) error

	// GetAll retrieves every transaction in insertion order.
	GetAll(ctx context.Context) ([]domain.Transaction, error)

	// GetByDateRange retrieves transactions dated within [start, end] (inclusive days), in insertion order.
	// Transactions without a date are excluded.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]domain.Transaction, error)

	// Count returns the number of stored transactions.
	Count(ctx context.Context) (int, error)
}

// ScoringRunStore provides access to scoring_runs storage.
type ScoringRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.ScoringRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.ScoringRun, error)

	// GetLatest retrieves the most recently finished run. Returns ErrNotFound if none.
	GetLatest(ctx context.Context) (*domain.ScoringRun, error)
}

// RiskScoreStore provides access to per-run scored transactions.
type RiskScoreStore interface {
	// InsertBulk stores the scored table of a run. Fails entire batch on duplicate (run_id, tx_id).
	InsertBulk(ctx context.Context, runID string, scored []domain.ScoredTransaction) error

	// GetByRun retrieves the scored table of a run in its original row order.
	GetByRun(ctx context.Context, runID string) ([]domain.ScoredTransaction, error)

	// GetByWallet retrieves one wallet's scored transactions within a run, in row order.
	GetByWallet(ctx context.Context, runID, walletID string) ([]domain.ScoredTransaction, error)
}
