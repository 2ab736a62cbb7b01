package cache

import (
	"context"
	"testing"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/scoring"
)

func intPtr(v int) *int { return &v }

func sampleTable() []domain.Transaction {
	return []domain.Transaction{
		{TxID: "a", Date: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), Hour: intPtr(3), Token: "USDT", WalletID: "w1", VolumeUSD: 100},
		{TxID: "b", Date: time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC), Token: "USDC", WalletID: "w2", VolumeUSD: 200, Sanctioned: true},
	}
}

func sampleScored(t *testing.T) []domain.ScoredTransaction {
	t.Helper()
	scored, err := scoring.Score(sampleTable(), scoring.DefaultPolicy())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	return scored
}

func TestKey(t *testing.T) {
	txs := sampleTable()
	p := scoring.DefaultPolicy()

	k1 := Key(txs, p)
	if k1 != Key(sampleTable(), scoring.DefaultPolicy()) {
		t.Error("equal inputs should produce equal keys")
	}
	if k1 == Key(txs, scoring.LinearSanctionsPolicy()) {
		t.Error("policy change should change the key")
	}

	txs[0].VolumeUSD = 101
	if k1 == Key(txs, p) {
		t.Error("table change should change the key")
	}
}

func TestKey_IgnoresTxID(t *testing.T) {
	a := sampleTable()
	b := sampleTable()
	b[0].TxID = "renamed"

	if Key(a, scoring.DefaultPolicy()) != Key(b, scoring.DefaultPolicy()) {
		t.Error("tx ids do not affect scores and should not affect the key")
	}
}

func TestNopMemo(t *testing.T) {
	ctx := context.Background()
	var m NopMemo
	if err := m.Set(ctx, "k", sampleScored(t)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := m.Get(ctx, "k"); ok || err != nil {
		t.Errorf("expected miss, got ok=%v err=%v", ok, err)
	}
}
