package domain

// WalletAggregate is the per-wallet reduction of a transaction table.
// It is rebuilt on every scoring run and never persisted.
type WalletAggregate struct {
	WalletID                  string
	TotalVolume               float64
	TransactionCount          int
	SanctionedVolume          float64 // sum of VolumeUSD over sanctioned transactions
	MaxHourlyTransactionCount int     // busiest single hour, 0 when no hour data
	DistinctActiveHours       int     // hours (of 24) with at least one transaction
}

// WalletScores are the wallet-level component scores broadcast onto each
// transaction of the wallet.
type WalletScores struct {
	Concentration float64
	Velocity      float64
	Sanctions     float64
	Burst         float64
	Time          float64
}
