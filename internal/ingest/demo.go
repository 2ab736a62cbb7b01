package ingest

import (
	"fmt"
	"math/rand/v2"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/idhash"
)

// DemoConfig configures synthetic ledger generation.
type DemoConfig struct {
	Days         int
	Wallets      int
	Start        time.Time
	Seed         uint64
	SanctionRate float64
	Tokens       []string
}

// DefaultDemoConfig returns the dashboard's demo settings.
func DefaultDemoConfig() DemoConfig {
	return DemoConfig{
		Days:         50,
		Wallets:      60,
		Start:        time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		Seed:         1,
		SanctionRate: 0.05,
		Tokens:       []string{domain.TokenUSDT, domain.TokenUSDC},
	}
}

const (
	demoMinTxPerDay = 4
	demoMaxTxPerDay = 15
	demoMinVolume   = 10_000
	demoMaxVolume   = 900_000
)

// GenerateDemo produces a reproducible synthetic ledger.
// Each day gets 4-15 transfers between 10k and 900k USD from random wallets.
func GenerateDemo(cfg DemoConfig) []domain.Transaction {
	if cfg.Days <= 0 || cfg.Wallets <= 0 {
		return []domain.Transaction{}
	}
	tokens := cfg.Tokens
	if len(tokens) == 0 {
		tokens = []string{domain.TokenUSDT, domain.TokenUSDC}
	}
	start := truncateDay(cfg.Start)

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	txs := make([]domain.Transaction, 0, cfg.Days*demoMaxTxPerDay)
	for day := 0; day < cfg.Days; day++ {
		date := start.AddDate(0, 0, day)
		n := demoMinTxPerDay + rng.IntN(demoMaxTxPerDay-demoMinTxPerDay+1)
		for i := 0; i < n; i++ {
			hour := domain.MinHour + rng.IntN(domain.HoursPerDay)
			txs = append(txs, domain.Transaction{
				TxID:       idhash.ComputeTransactionID("demo", len(txs)),
				Date:       date,
				Hour:       &hour,
				Token:      tokens[rng.IntN(len(tokens))],
				WalletID:   fmt.Sprintf("Wallet %d", 1+rng.IntN(cfg.Wallets)),
				VolumeUSD:  float64(demoMinVolume + rng.IntN(demoMaxVolume-demoMinVolume)),
				Sanctioned: rng.Float64() < cfg.SanctionRate,
			})
		}
	}
	return txs
}
