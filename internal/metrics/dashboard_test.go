package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/storage/memory"
)

func TestCompute(t *testing.T) {
	d := Compute(fixture(), Filter{Tokens: []string{"USDT"}}, 0)

	if d.KeyFigures.TransactionCount != 3 {
		t.Errorf("filter should apply before aggregation, got %d rows", d.KeyFigures.TransactionCount)
	}
	if len(d.TokenAverages) != 1 || d.TokenAverages[0].Token != "USDT" {
		t.Errorf("unexpected token averages: %+v", d.TokenAverages)
	}
	if len(d.RiskHistogram) != HistogramBuckets {
		t.Errorf("expected %d buckets, got %d", HistogramBuckets, len(d.RiskHistogram))
	}
	if len(d.TopByAverageRisk) != 2 {
		t.Errorf("expected 2 ranked wallets, got %d", len(d.TopByAverageRisk))
	}
}

func TestCompute_TopN(t *testing.T) {
	d := Compute(fixture(), Filter{}, 1)
	if len(d.TopByAverageRisk) != 1 || len(d.TopWhales) != 1 || len(d.TopSanctionsExposed) != 1 {
		t.Errorf("expected rankings truncated to 1")
	}
}

func TestAggregator_ComputeLatest(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewScoringRunStore()
	scores := memory.NewRiskScoreStore()
	agg := NewAggregator(runs, scores)

	if _, _, err := agg.ComputeLatest(ctx, Filter{}, 0); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}

	now := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	older := &domain.ScoringRun{RunID: "run-1", StartedAt: now, FinishedAt: now}
	newer := &domain.ScoringRun{RunID: "run-2", StartedAt: now, FinishedAt: now.Add(time.Minute)}
	for _, r := range []*domain.ScoringRun{older, newer} {
		if err := runs.Insert(ctx, r); err != nil {
			t.Fatalf("insert run: %v", err)
		}
	}
	if err := scores.InsertBulk(ctx, "run-1", fixture()[:1]); err != nil {
		t.Fatalf("insert scores: %v", err)
	}
	if err := scores.InsertBulk(ctx, "run-2", fixture()); err != nil {
		t.Fatalf("insert scores: %v", err)
	}

	d, run, err := agg.ComputeLatest(ctx, Filter{}, 0)
	if err != nil {
		t.Fatalf("ComputeLatest: %v", err)
	}
	if run.RunID != "run-2" {
		t.Errorf("expected latest run-2, got %s", run.RunID)
	}
	if d.KeyFigures.TransactionCount != 5 {
		t.Errorf("expected 5 rows, got %d", d.KeyFigures.TransactionCount)
	}
}
