package scoring

import (
	"testing"

	"stablecoin-risk-monitor/internal/domain"
)

func TestAggregateWallets_SinglePass(t *testing.T) {
	txs := []domain.Transaction{
		tx("B", "USDT", 100, hour(3), true),
		tx("A", "USDC", 50, hour(3), false),
		tx("B", "USDT", 200, hour(3), false),
		tx("B", "USDT", 300, hour(4), true),
		tx("A", "USDC", 25, nil, false),
	}

	aggs := AggregateWallets(txs)
	if len(aggs) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(aggs))
	}

	a, b := aggs[0], aggs[1]
	if a.WalletID != "A" || b.WalletID != "B" {
		t.Fatalf("expected wallets sorted A, B; got %s, %s", a.WalletID, b.WalletID)
	}

	if a.TotalVolume != 75 || a.TransactionCount != 2 || a.SanctionedVolume != 0 {
		t.Errorf("wallet A: unexpected aggregate %+v", a)
	}
	if a.MaxHourlyTransactionCount != 1 || a.DistinctActiveHours != 1 {
		t.Errorf("wallet A: unexpected hour stats %+v", a)
	}

	if b.TotalVolume != 600 || b.TransactionCount != 3 || b.SanctionedVolume != 400 {
		t.Errorf("wallet B: unexpected aggregate %+v", b)
	}
	if b.MaxHourlyTransactionCount != 2 || b.DistinctActiveHours != 2 {
		t.Errorf("wallet B: unexpected hour stats %+v", b)
	}
}

func TestAggregateWallets_Empty(t *testing.T) {
	if aggs := AggregateWallets(nil); len(aggs) != 0 {
		t.Errorf("expected no aggregates, got %d", len(aggs))
	}
}

func TestWalletScores_AllZeroVolumes(t *testing.T) {
	scores := walletScores([]domain.WalletAggregate{
		{WalletID: "A", TransactionCount: 1},
		{WalletID: "B", TransactionCount: 2},
	})

	if scores["A"].Concentration != 0 || scores["B"].Concentration != 0 {
		t.Errorf("expected zero concentration when all volumes are zero")
	}
	if scores["A"].Velocity != 50 || scores["B"].Velocity != 100 {
		t.Errorf("unexpected velocity %f / %f", scores["A"].Velocity, scores["B"].Velocity)
	}
}
