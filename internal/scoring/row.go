package scoring

import (
	"math"

	"stablecoin-risk-monitor/internal/domain"
)

// flooredVolume floors volume at 1 so log10 is never negative or undefined.
func flooredVolume(volume float64) float64 {
	return math.Max(volume, 1)
}

// volumeScores returns log10(v) / log10(max v) * 100 per transaction.
// When every floored volume is 1 the denominator is 0 and all scores are 0.
func volumeScores(txs []domain.Transaction) []float64 {
	scores := make([]float64, len(txs))
	if len(txs) == 0 {
		return scores
	}

	maxVolume := 1.0
	for i := range txs {
		maxVolume = math.Max(maxVolume, flooredVolume(txs[i].VolumeUSD))
	}

	maxLog := math.Log10(maxVolume)
	if maxLog <= 0 {
		return scores
	}

	for i := range txs {
		scores[i] = clamp(math.Log10(flooredVolume(txs[i].VolumeUSD)) / maxLog * 100)
	}
	return scores
}

// tokenProfileScore is the static prior for the transaction's token.
func tokenProfileScore(p Policy, token string) float64 {
	return clamp(p.TokenBaseline(token))
}

// clamp bounds a score to [0, 100].
func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
