package cache

import (
	"context"
	"sync"

	"stablecoin-risk-monitor/internal/domain"
)

// DefaultMemoryCapacity bounds MemoryMemo when no capacity is given.
const DefaultMemoryCapacity = 16

// MemoryMemo is a bounded in-process memo. When full, the oldest
// inserted entry is evicted first.
type MemoryMemo struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][]domain.ScoredTransaction
	order    []string // insertion order, oldest first
}

// NewMemoryMemo creates a memo holding at most capacity tables.
func NewMemoryMemo(capacity int) *MemoryMemo {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryMemo{
		capacity: capacity,
		entries:  make(map[string][]domain.ScoredTransaction),
	}
}

// Get returns a copy of the cached table.
func (m *MemoryMemo) Get(_ context.Context, key string) ([]domain.ScoredTransaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scored, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return cloneScored(scored), true, nil
}

// Set stores a copy of the table. Re-setting a key replaces the value
// without changing its eviction position.
func (m *MemoryMemo) Set(_ context.Context, key string, scored []domain.ScoredTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists {
		if len(m.order) >= m.capacity {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.entries, oldest)
		}
		m.order = append(m.order, key)
	}
	m.entries[key] = cloneScored(scored)
	return nil
}

// Len returns the number of cached tables.
func (m *MemoryMemo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var _ Memo = (*MemoryMemo)(nil)
