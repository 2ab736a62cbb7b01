package scoring

import (
	"math"

	"stablecoin-risk-monitor/internal/domain"
)

// baseScore is the weighted sum of component scores.
func baseScore(s domain.ComponentScores, w Weights) float64 {
	return w.Volume*s.Volume +
		w.TokenProfile*s.TokenProfile +
		w.Concentration*s.Concentration +
		w.Velocity*s.Velocity +
		w.Sanctions*s.Sanctions +
		w.Burst*s.Burst +
		w.Time*s.Time
}

// sanctionsMultiplier grows with log volume for sanctioned transfers and is
// 1 otherwise. It is unbounded; the final clamp caps the product at 100.
func sanctionsMultiplier(tx *domain.Transaction) float64 {
	if !tx.Sanctioned {
		return 1
	}
	return 1 + math.Log10(flooredVolume(tx.VolumeUSD))/2
}

// riskScore blends components and applies the sanctions multiplier when enabled.
func riskScore(p Policy, tx *domain.Transaction, s domain.ComponentScores) float64 {
	score := baseScore(s, p.Weights)
	if p.SanctionsMultiplier {
		score *= sanctionsMultiplier(tx)
	}
	return clamp(score)
}
