// Package scoring computes the public risk score for stablecoin transactions.
//
// Scoring is a pure batch transform: row-level scores (volume, token profile),
// one grouped pass producing wallet aggregates, wallet-level scores
// (concentration, velocity, sanctions, burst, time) broadcast back onto every
// transaction of the wallet, and a weighted blend with an optional
// sanctions multiplier. The same table and policy always produce the same output.
package scoring

import (
	"fmt"
	"math"

	"stablecoin-risk-monitor/internal/domain"
)

// Scorer applies a validated Policy to transaction tables.
// A Scorer holds no mutable state and is safe for concurrent use.
type Scorer struct {
	policy Policy
}

// NewScorer validates the policy and returns a Scorer.
func NewScorer(p Policy) (*Scorer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{policy: p}, nil
}

// Policy returns the policy the scorer was built with.
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Score scores every transaction. Output order matches input order.
// The input slice is not modified.
func (s *Scorer) Score(txs []domain.Transaction) ([]domain.ScoredTransaction, error) {
	if err := ValidateTable(txs); err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return []domain.ScoredTransaction{}, nil
	}

	volume := volumeScores(txs)
	wallets := walletScores(AggregateWallets(txs))

	result := make([]domain.ScoredTransaction, len(txs))
	for i := range txs {
		tx := &txs[i]
		ws, ok := wallets[tx.WalletID]
		if !ok {
			return nil, fmt.Errorf("row %d wallet %q: %w", i, tx.WalletID, ErrWalletNotAggregated)
		}

		scores := domain.ComponentScores{
			Volume:        volume[i],
			TokenProfile:  tokenProfileScore(s.policy, tx.Token),
			Concentration: ws.Concentration,
			Velocity:      ws.Velocity,
			Sanctions:     ws.Sanctions,
			Burst:         ws.Burst,
			Time:          ws.Time,
		}
		scores.Risk = riskScore(s.policy, tx, scores)

		result[i] = domain.ScoredTransaction{Transaction: *tx, Scores: scores}
	}

	return result, nil
}

// Score is a convenience wrapper for one-off scoring with a policy.
func Score(txs []domain.Transaction, p Policy) ([]domain.ScoredTransaction, error) {
	s, err := NewScorer(p)
	if err != nil {
		return nil, err
	}
	return s.Score(txs)
}

// ValidateTable rejects rows that would break scoring invariants.
// Hours must be 1..24 when present; they are never wrapped.
func ValidateTable(txs []domain.Transaction) error {
	for i := range txs {
		tx := &txs[i]
		if tx.WalletID == "" {
			return fmt.Errorf("row %d: %w", i, ErrMissingWallet)
		}
		if tx.VolumeUSD < 0 || math.IsNaN(tx.VolumeUSD) || math.IsInf(tx.VolumeUSD, 0) {
			return fmt.Errorf("row %d volume %v: %w", i, tx.VolumeUSD, ErrInvalidVolume)
		}
		if tx.HasHour() && (*tx.Hour < domain.MinHour || *tx.Hour > domain.MaxHour) {
			return fmt.Errorf("row %d hour %d: %w", i, *tx.Hour, ErrInvalidHour)
		}
	}
	return nil
}
