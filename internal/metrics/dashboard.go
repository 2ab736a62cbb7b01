// Package metrics computes dashboard aggregations over scored transactions:
// key figures, wallet rankings, per-token averages, sanctions flows and the
// risk distribution.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/storage"
)

// DefaultTopN is the ranking length used when none is requested.
const DefaultTopN = 10

// Dashboard bundles every aggregation for one (filtered) scored table.
type Dashboard struct {
	Filter              Filter
	KeyFigures          KeyFigures
	TopByAverageRisk    []WalletSummary
	TopSanctionsExposed []WalletSummary
	TopWhales           []WalletSummary
	FlaggedWallets      []FlaggedWallet
	TokenAverages       []TokenAverages
	VolumeByToken       []TokenVolume
	SanctionedByToken   []TokenVolume
	DailyFlows          []DailyFlow
	TokenDailyVolume    []TokenDailyVolume
	RiskHistogram       []HistogramBucket
}

// Compute builds a Dashboard. Filtering happens before any aggregation.
// topN <= 0 uses DefaultTopN.
func Compute(scored []domain.ScoredTransaction, f Filter, topN int) *Dashboard {
	if topN <= 0 {
		topN = DefaultTopN
	}
	rows := Apply(scored, f)
	wallets := SummarizeWallets(rows)

	return &Dashboard{
		Filter:              f,
		KeyFigures:          ComputeKeyFigures(rows),
		TopByAverageRisk:    TopByAverageRisk(wallets, topN),
		TopSanctionsExposed: TopSanctionsExposed(wallets, topN),
		TopWhales:           TopWhales(wallets, topN),
		FlaggedWallets:      ComputeFlaggedWallets(rows, 0),
		TokenAverages:       ComputeTokenAverages(rows),
		VolumeByToken:       VolumeByToken(rows),
		SanctionedByToken:   SanctionedByToken(rows),
		DailyFlows:          ComputeDailyFlows(rows),
		TokenDailyVolume:    ComputeTokenDailyVolume(rows),
		RiskHistogram:       RiskHistogram(rows),
	}
}

// ErrNoRuns is returned when no scoring run has been stored yet.
var ErrNoRuns = errors.New("no scoring runs available for aggregation")

// Aggregator computes dashboards from persisted scoring runs.
type Aggregator struct {
	runStore   storage.ScoringRunStore
	scoreStore storage.RiskScoreStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(runStore storage.ScoringRunStore, scoreStore storage.RiskScoreStore) *Aggregator {
	return &Aggregator{
		runStore:   runStore,
		scoreStore: scoreStore,
	}
}

// LatestRun returns the most recent run. Returns ErrNoRuns if none exist.
func (a *Aggregator) LatestRun(ctx context.Context) (*domain.ScoringRun, error) {
	run, err := a.runStore.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoRuns
		}
		return nil, fmt.Errorf("load latest run: %w", err)
	}
	return run, nil
}

// ComputeLatest loads the latest run's scores and builds its dashboard.
func (a *Aggregator) ComputeLatest(ctx context.Context, f Filter, topN int) (*Dashboard, *domain.ScoringRun, error) {
	run, err := a.LatestRun(ctx)
	if err != nil {
		return nil, nil, err
	}

	scored, err := a.scoreStore.GetByRun(ctx, run.RunID)
	if err != nil {
		return nil, nil, fmt.Errorf("load scores for run %s: %w", run.RunID, err)
	}

	return Compute(scored, f, topN), run, nil
}
