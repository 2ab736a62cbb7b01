package pipeline

import (
	"context"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/idhash"
	"stablecoin-risk-monitor/internal/storage"
)

// FixtureSource names the fixture table in tx ids and run metadata.
const FixtureSource = "fixtures"

// FixtureTransactions returns a small deterministic table covering every
// component: a sanctioned whale, a bursty wallet, an all-day wallet and an
// unknown token.
func FixtureTransactions() []domain.Transaction {
	day := func(d int) time.Time { return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC) }
	hour := func(h int) *int { return &h }

	txs := []domain.Transaction{
		// Wallet 1: large sanctioned transfers
		{Date: day(1), Hour: hour(3), Token: domain.TokenUSDT, WalletID: "Wallet 1", VolumeUSD: 850000, Sanctioned: true},
		{Date: day(2), Hour: hour(4), Token: domain.TokenUSDT, WalletID: "Wallet 1", VolumeUSD: 420000, Sanctioned: true},

		// Wallet 2: burst of activity in one hour
		{Date: day(1), Hour: hour(14), Token: domain.TokenUSDC, WalletID: "Wallet 2", VolumeUSD: 12000},
		{Date: day(1), Hour: hour(14), Token: domain.TokenUSDC, WalletID: "Wallet 2", VolumeUSD: 15000},
		{Date: day(1), Hour: hour(14), Token: domain.TokenUSDC, WalletID: "Wallet 2", VolumeUSD: 11000},
		{Date: day(1), Hour: hour(14), Token: domain.TokenUSDC, WalletID: "Wallet 2", VolumeUSD: 18000},

		// Wallet 3: spread over many hours
		{Date: day(1), Hour: hour(1), Token: domain.TokenDAI, WalletID: "Wallet 3", VolumeUSD: 30000},
		{Date: day(2), Hour: hour(7), Token: domain.TokenDAI, WalletID: "Wallet 3", VolumeUSD: 25000},
		{Date: day(2), Hour: hour(13), Token: domain.TokenUSDe, WalletID: "Wallet 3", VolumeUSD: 40000},
		{Date: day(3), Hour: hour(19), Token: domain.TokenUSDe, WalletID: "Wallet 3", VolumeUSD: 35000},
		{Date: day(3), Hour: hour(24), Token: domain.TokenUSDT, WalletID: "Wallet 3", VolumeUSD: 20000},

		// Wallet 4: small transfer in an unlisted token, no hour
		{Date: day(3), Token: "PYUSD", WalletID: "Wallet 4", VolumeUSD: 500},
	}

	for i := range txs {
		txs[i].TxID = idhash.ComputeTransactionID(FixtureSource, i)
	}
	return txs
}

// LoadFixtures populates the transaction store with FixtureTransactions.
func LoadFixtures(ctx context.Context, store storage.TransactionStore) error {
	return store.InsertBulk(ctx, FixtureTransactions())
}
