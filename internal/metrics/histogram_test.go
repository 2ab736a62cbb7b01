package metrics

import (
	"testing"

	"stablecoin-risk-monitor/internal/domain"
)

func TestRiskHistogram(t *testing.T) {
	scored := []domain.ScoredTransaction{
		row("A", "USDT", 1, 1, 0, false),
		row("A", "USDT", 1, 1, 9.99, false),
		row("A", "USDT", 1, 1, 10, false),
		row("A", "USDT", 1, 1, 55, false),
		row("A", "USDT", 1, 1, 100, false),
	}

	buckets := RiskHistogram(scored)
	if len(buckets) != HistogramBuckets {
		t.Fatalf("expected %d buckets, got %d", HistogramBuckets, len(buckets))
	}

	want := map[int]int{0: 2, 1: 1, 5: 1, 9: 1}
	for i, b := range buckets {
		if b.Count != want[i] {
			t.Errorf("bucket %d [%v,%v): expected %d, got %d", i, b.Lower, b.Upper, want[i], b.Count)
		}
	}
	if buckets[9].Upper != 100 {
		t.Errorf("last bucket upper: expected 100, got %v", buckets[9].Upper)
	}
}

func TestRiskHistogram_Empty(t *testing.T) {
	total := 0
	for _, b := range RiskHistogram(nil) {
		total += b.Count
	}
	if total != 0 {
		t.Errorf("expected empty histogram, got %d", total)
	}
}
