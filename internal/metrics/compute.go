package metrics

import (
	"sort"

	"stablecoin-risk-monitor/internal/domain"
)

// KeyFigures are the headline numbers of a scored table.
type KeyFigures struct {
	TotalVolume        float64
	WalletCount        int
	TransactionCount   int
	AverageRisk        float64
	MedianRisk         float64
	P90Risk            float64
	MaxRisk            float64
	SanctionedVolume   float64
	SanctionedSharePct float64 // SanctionedVolume / TotalVolume * 100, 0 when no volume
	FlaggedWallets     int     // wallets with at least one sanctioned transaction
}

// ComputeKeyFigures calculates headline numbers.
func ComputeKeyFigures(scored []domain.ScoredTransaction) KeyFigures {
	n := len(scored)
	if n == 0 {
		return KeyFigures{}
	}

	wallets := make(map[string]struct{})
	flagged := make(map[string]struct{})
	risks := make([]float64, n)

	var kf KeyFigures
	for i := range scored {
		st := &scored[i]
		kf.TotalVolume += st.VolumeUSD
		wallets[st.WalletID] = struct{}{}
		risks[i] = st.Scores.Risk
		if st.Sanctioned {
			kf.SanctionedVolume += st.VolumeUSD
			flagged[st.WalletID] = struct{}{}
		}
	}

	sorted := make([]float64, n)
	copy(sorted, risks)
	sort.Float64s(sorted)

	kf.TransactionCount = n
	kf.WalletCount = len(wallets)
	kf.FlaggedWallets = len(flagged)
	kf.AverageRisk = computeMean(risks)
	kf.MedianRisk = computePercentile(sorted, 0.50)
	kf.P90Risk = computePercentile(sorted, 0.90)
	kf.MaxRisk = sorted[n-1]
	if kf.TotalVolume > 0 {
		kf.SanctionedSharePct = kf.SanctionedVolume / kf.TotalVolume * 100
	}

	return kf
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
