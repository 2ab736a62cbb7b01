// Package cache memoizes scored tables by input content.
//
// Scoring is deterministic, so a table and policy with equal digests always
// produce the same scores. Memo implementations store the scored table under
// Key(txs, policy) and never inspect it.
package cache

import (
	"context"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/idhash"
	"stablecoin-risk-monitor/internal/scoring"
)

// Memo stores scored tables by content key.
type Memo interface {
	// Get returns the cached table. A miss returns (nil, false, nil).
	Get(ctx context.Context, key string) ([]domain.ScoredTransaction, bool, error)

	// Set stores a scored table under key.
	Set(ctx context.Context, key string, scored []domain.ScoredTransaction) error
}

// Key builds the memo key for a table scored under policy.
func Key(txs []domain.Transaction, policy scoring.Policy) string {
	return idhash.TableDigest(txs) + ":" + policy.Digest()
}

// NopMemo never hits and discards writes.
type NopMemo struct{}

// Get always misses.
func (NopMemo) Get(context.Context, string) ([]domain.ScoredTransaction, bool, error) {
	return nil, false, nil
}

// Set discards the table.
func (NopMemo) Set(context.Context, string, []domain.ScoredTransaction) error {
	return nil
}

var _ Memo = NopMemo{}

// cloneScored deep-copies a table so cached entries cannot be mutated
// through returned slices.
func cloneScored(scored []domain.ScoredTransaction) []domain.ScoredTransaction {
	out := make([]domain.ScoredTransaction, len(scored))
	copy(out, scored)
	for i := range out {
		if out[i].Hour != nil {
			h := *out[i].Hour
			out[i].Hour = &h
		}
	}
	return out
}
