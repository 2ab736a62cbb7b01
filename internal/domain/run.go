package domain

import "time"

// ScoringRun records one execution of the scoring pipeline.
// Corresponds to scoring_runs table in PostgreSQL.
type ScoringRun struct {
	RunID            string    // uuid
	InputDigest      string    // content hash of the scored table
	PolicyDigest     string    // content hash of the scoring policy
	TransactionCount int       // rows scored
	WalletCount      int       // distinct wallets
	AlertCount       int       // alerts published
	CacheHit         bool      // scores came from the memo cache
	StartedAt        time.Time // UTC
	FinishedAt       time.Time // UTC
}
