package metrics

import "stablecoin-risk-monitor/internal/domain"

// HistogramBuckets is the number of risk histogram buckets.
const HistogramBuckets = 10

// HistogramBucket counts risk scores in [Lower, Upper). The last bucket
// is closed so a score of exactly 100 lands in it.
type HistogramBucket struct {
	Lower float64
	Upper float64
	Count int
}

// RiskHistogram buckets risk scores into ten equal-width bins over [0, 100].
func RiskHistogram(scored []domain.ScoredTransaction) []HistogramBucket {
	const width = 100.0 / HistogramBuckets

	buckets := make([]HistogramBucket, HistogramBuckets)
	for i := range buckets {
		buckets[i].Lower = float64(i) * width
		buckets[i].Upper = float64(i+1) * width
	}

	for i := range scored {
		idx := int(scored[i].Scores.Risk / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= HistogramBuckets {
			idx = HistogramBuckets - 1
		}
		buckets[idx].Count++
	}
	return buckets
}
