package memory

import (
	"context"
	"sync"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/storage"
)

// RiskScoreStore is an in-memory implementation of storage.RiskScoreStore.
type RiskScoreStore struct {
	mu   sync.RWMutex
	runs map[string][]domain.ScoredTransaction // keyed by run_id, row order
}

// NewRiskScoreStore creates a new in-memory risk score store.
func NewRiskScoreStore() *RiskScoreStore {
	return &RiskScoreStore{
		runs: make(map[string][]domain.ScoredTransaction),
	}
}

// InsertBulk stores the scored table of a run. A run is written once;
// a second write for the same run_id or a repeated tx_id fails the batch.
func (s *RiskScoreStore) InsertBulk(_ context.Context, runID string, scored []domain.ScoredTransaction) error {
	if runID == "" {
		return storage.Invalidf("scores without run_id")
	}
	if len(scored) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; exists {
		return storage.Duplicatef("run %s already has scores", runID)
	}

	batchKeys := make(map[string]struct{}, len(scored))
	for i := range scored {
		id := scored[i].TxID
		if id == "" {
			return storage.Invalidf("scored row %d has no tx_id", i)
		}
		if _, exists := batchKeys[id]; exists {
			return storage.Duplicatef("tx_id %s repeated in run %s", id, runID)
		}
		batchKeys[id] = struct{}{}
	}

	rows := make([]domain.ScoredTransaction, len(scored))
	for i := range scored {
		rows[i] = cloneScored(scored[i])
	}
	s.runs[runID] = rows
	return nil
}

// GetByRun retrieves the scored table of a run in row order.
// An unknown run yields an empty slice.
func (s *RiskScoreStore) GetByRun(_ context.Context, runID string) ([]domain.ScoredTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.runs[runID]
	result := make([]domain.ScoredTransaction, len(rows))
	for i := range rows {
		result[i] = cloneScored(rows[i])
	}
	return result, nil
}

// GetByWallet retrieves one wallet's scored transactions within a run.
func (s *RiskScoreStore) GetByWallet(_ context.Context, runID, walletID string) ([]domain.ScoredTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ScoredTransaction, 0)
	for _, row := range s.runs[runID] {
		if row.WalletID == walletID {
			result = append(result, cloneScored(row))
		}
	}
	return result, nil
}

func cloneScored(st domain.ScoredTransaction) domain.ScoredTransaction {
	st.Transaction = cloneTransaction(st.Transaction)
	return st
}

var _ storage.RiskScoreStore = (*RiskScoreStore)(nil)
