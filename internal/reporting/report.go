package reporting

import (
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/metrics"
	"stablecoin-risk-monitor/internal/scoring"
)

// Report represents one rendered view of a scored table.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string // empty for ad-hoc reports
	Filter      metrics.Filter
	Policy      scoring.Policy

	// Data Summary
	DataSummary DataSummary

	// Data Quality (coverage checks)
	DataQuality DataQualitySection

	// Aggregations over the filtered rows
	Dashboard *metrics.Dashboard

	// Per-wallet rows, sorted by wallet_id
	Wallets []metrics.WalletSummary

	// Filtered scored rows in input order
	Scored []domain.ScoredTransaction

	// Reproducibility metadata, filled by the pipeline
	Reproducibility ReproducibilityMetadata
}

// ReproducibilityMetadata identifies the exact inputs behind a report.
type ReproducibilityMetadata struct {
	GeneratorVersion string
	InputDigest      string
	PolicyDigest     string
	CommitHash       string
	CacheHit         bool
}

// DataQualitySection contains coverage checks of optional columns.
// A failed check does not block the report; it flags components that
// degrade to their documented fallbacks.
type DataQualitySection struct {
	Checks          []QualityCheckRow
	AllChecksPassed bool
}

// QualityCheckRow represents one coverage criterion.
type QualityCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DataSummary describes the filtered table.
type DataSummary struct {
	TotalTransactions int
	TotalWallets      int
	Tokens            []string  // sorted
	DateRangeStart    time.Time // zero when no row is dated
	DateRangeEnd      time.Time
}
