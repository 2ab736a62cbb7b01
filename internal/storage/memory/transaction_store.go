package memory

import (
	"context"
	"sync"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu    sync.RWMutex
	rows  []domain.Transaction // insertion order
	index map[string]struct{}  // tx_id set
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		index: make(map[string]struct{}),
	}
}

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(_ context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(txs))

	// First pass: check for duplicates (existing + intra-batch)
	for i := range txs {
		id := txs[i].TxID
		if id == "" {
			return storage.Invalidf("transaction %d has no tx_id", i)
		}
		if _, exists := s.index[id]; exists {
			return storage.Duplicatef("tx_id %s", id)
		}
		if _, exists := batchKeys[id]; exists {
			return storage.Duplicatef("tx_id %s repeated in batch", id)
		}
		batchKeys[id] = struct{}{}
	}

	// Second pass: insert all
	for i := range txs {
		s.rows = append(s.rows, cloneTransaction(txs[i]))
		s.index[txs[i].TxID] = struct{}{}
	}

	return nil
}

// GetAll retrieves every transaction in insertion order.
func (s *TransactionStore) GetAll(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, len(s.rows))
	for i := range s.rows {
		result[i] = cloneTransaction(s.rows[i])
	}
	return result, nil
}

// GetByDateRange retrieves transactions dated within [start, end] (inclusive days).
func (s *TransactionStore) GetByDateRange(_ context.Context, start, end time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from := dayOf(start)
	to := dayOf(end)

	result := make([]domain.Transaction, 0)
	for i := range s.rows {
		if s.rows[i].Date.IsZero() {
			continue
		}
		d := dayOf(s.rows[i].Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		result = append(result, cloneTransaction(s.rows[i]))
	}
	return result, nil
}

// Count returns the number of stored transactions.
func (s *TransactionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

// cloneTransaction copies tx including its hour pointer.
func cloneTransaction(tx domain.Transaction) domain.Transaction {
	if tx.Hour != nil {
		h := *tx.Hour
		tx.Hour = &h
	}
	return tx
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
