package memory

import (
	"context"
	"sync"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/storage"
)

// ScoringRunStore is an in-memory implementation of storage.ScoringRunStore.
type ScoringRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScoringRun // keyed by run_id
}

// NewScoringRunStore creates a new in-memory scoring run store.
func NewScoringRunStore() *ScoringRunStore {
	return &ScoringRunStore{
		data: make(map[string]*domain.ScoringRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ScoringRunStore) Insert(_ context.Context, r *domain.ScoringRun) error {
	if r == nil || r.RunID == "" {
		return storage.Invalidf("scoring run without run_id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.Duplicatef("run %s", r.RunID)
	}

	copy := *r
	s.data[r.RunID] = &copy
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ScoringRunStore) GetByID(_ context.Context, runID string) (*domain.ScoringRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetLatest retrieves the run with the latest FinishedAt.
// Ties break on run_id DESC so the result is deterministic.
func (s *ScoringRunStore) GetLatest(_ context.Context) (*domain.ScoringRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.ScoringRun
	for _, r := range s.data {
		if latest == nil ||
			r.FinishedAt.After(latest.FinishedAt) ||
			(r.FinishedAt.Equal(latest.FinishedAt) && r.RunID > latest.RunID) {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	copy := *latest
	return &copy, nil
}

var _ storage.ScoringRunStore = (*ScoringRunStore)(nil)
