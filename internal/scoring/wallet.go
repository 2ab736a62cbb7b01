package scoring

import (
	"stablecoin-risk-monitor/internal/domain"
)

// walletScores computes the five wallet-level component scores, keyed by wallet id.
func walletScores(aggs []domain.WalletAggregate) map[string]domain.WalletScores {
	var (
		maxTotal      float64
		maxCount      int
		maxSanctioned float64
		maxBurst      int
	)
	for i := range aggs {
		a := &aggs[i]
		if a.TotalVolume > maxTotal {
			maxTotal = a.TotalVolume
		}
		if a.TransactionCount > maxCount {
			maxCount = a.TransactionCount
		}
		if a.SanctionedVolume > maxSanctioned {
			maxSanctioned = a.SanctionedVolume
		}
		if a.MaxHourlyTransactionCount > maxBurst {
			maxBurst = a.MaxHourlyTransactionCount
		}
	}

	scores := make(map[string]domain.WalletScores, len(aggs))
	for i := range aggs {
		a := &aggs[i]
		scores[a.WalletID] = domain.WalletScores{
			Concentration: ratioScore(a.TotalVolume, maxTotal),
			Velocity:      ratioScore(float64(a.TransactionCount), float64(maxCount)),
			Sanctions:     sanctionsScore(a.SanctionedVolume, maxSanctioned),
			Burst:         ratioScore(float64(a.MaxHourlyTransactionCount), float64(maxBurst)),
			Time:          timeScore(a.DistinctActiveHours),
		}
	}
	return scores
}

// ratioScore is value / max * 100, or 0 when max is not positive.
func ratioScore(value, maxValue float64) float64 {
	if maxValue <= 0 {
		return 0
	}
	return clamp(value / maxValue * 100)
}

// sanctionsScore normalises sanctioned volume by the dataset maximum.
// Without a usable denominator it falls back to presence: >0 scores 100.
func sanctionsScore(sanctioned, maxSanctioned float64) float64 {
	if maxSanctioned <= 0 {
		if sanctioned > 0 {
			return 100
		}
		return 0
	}
	return clamp(sanctioned / maxSanctioned * 100)
}

// timeScore is the share of the 24 hour buckets the wallet was active in.
func timeScore(distinctHours int) float64 {
	return clamp(float64(distinctHours) / float64(domain.HoursPerDay) * 100)
}
