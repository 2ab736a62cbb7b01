package postgres

import (
	"context"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/storage"
)

// ScoringRunStore implements storage.ScoringRunStore using PostgreSQL.
type ScoringRunStore struct {
	pool *Pool
}

// NewScoringRunStore creates a new ScoringRunStore.
func NewScoringRunStore(pool *Pool) *ScoringRunStore {
	return &ScoringRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScoringRunStore = (*ScoringRunStore)(nil)

const runColumns = `
	run_id, input_digest, policy_digest,
	transaction_count, wallet_count, alert_count, cache_hit,
	started_at, finished_at`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ScoringRunStore) Insert(ctx context.Context, r *domain.ScoringRun) error {
	if r == nil || r.RunID == "" {
		return storage.Invalidf("scoring run without run_id")
	}

	query := `
		INSERT INTO scoring_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.InputDigest, r.PolicyDigest,
		r.TransactionCount, r.WalletCount, r.AlertCount, r.CacheHit,
		r.StartedAt.UTC(), r.FinishedAt.UTC(),
	)
	return translateError(err, "insert scoring run "+r.RunID)
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ScoringRunStore) GetByID(ctx context.Context, runID string) (*domain.ScoringRun, error) {
	query := `SELECT ` + runColumns + ` FROM scoring_runs WHERE run_id = $1`
	return s.getOne(ctx, query, runID)
}

// GetLatest retrieves the most recently finished run. Returns ErrNotFound if none.
func (s *ScoringRunStore) GetLatest(ctx context.Context) (*domain.ScoringRun, error) {
	query := `SELECT ` + runColumns + ` FROM scoring_runs ORDER BY finished_at DESC, run_id DESC LIMIT 1`
	return s.getOne(ctx, query)
}

func (s *ScoringRunStore) getOne(ctx context.Context, query string, args ...any) (*domain.ScoringRun, error) {
	var r domain.ScoringRun
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&r.RunID, &r.InputDigest, &r.PolicyDigest,
		&r.TransactionCount, &r.WalletCount, &r.AlertCount, &r.CacheHit,
		&r.StartedAt, &r.FinishedAt,
	)
	if err != nil {
		return nil, translateError(err, "get scoring run")
	}
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	return &r, nil
}
