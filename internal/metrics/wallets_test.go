package metrics

import (
	"testing"

	"stablecoin-risk-monitor/internal/domain"
)

func TestSummarizeWallets(t *testing.T) {
	ws := SummarizeWallets(fixture())
	if len(ws) != 3 {
		t.Fatalf("expected 3 wallets, got %d", len(ws))
	}

	a := ws[0]
	if a.WalletID != "A" {
		t.Fatalf("expected sorted by wallet id, got %s first", a.WalletID)
	}
	if a.TransactionCount != 2 || !almostEqual(a.TotalVolume, 400) {
		t.Errorf("A: unexpected count/volume %d/%v", a.TransactionCount, a.TotalVolume)
	}
	if !almostEqual(a.AverageRisk, 70) || a.MaxRisk != 80 {
		t.Errorf("A: unexpected avg/max risk %v/%v", a.AverageRisk, a.MaxRisk)
	}
	if !a.HasSanctions || !almostEqual(a.SanctionedVolume, 100) {
		t.Errorf("A: unexpected sanctions %v/%v", a.HasSanctions, a.SanctionedVolume)
	}

	if ws[1].HasSanctions {
		t.Error("B should have no sanctions")
	}
}

func TestTopByAverageRisk(t *testing.T) {
	ws := SummarizeWallets(fixture())
	// A: 70, B: 40, C: 55
	top := TopByAverageRisk(ws, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2, got %d", len(top))
	}
	if top[0].WalletID != "A" || top[1].WalletID != "C" {
		t.Errorf("unexpected order: %s, %s", top[0].WalletID, top[1].WalletID)
	}

	if all := TopByAverageRisk(ws, 0); len(all) != 3 {
		t.Errorf("n=0 should return all, got %d", len(all))
	}
}

func TestTopByAverageRisk_TieBreak(t *testing.T) {
	ws := []WalletSummary{
		{WalletID: "Z", AverageRisk: 50},
		{WalletID: "M", AverageRisk: 50},
		{WalletID: "A", AverageRisk: 50},
	}
	top := TopByAverageRisk(ws, 3)
	if top[0].WalletID != "A" || top[1].WalletID != "M" || top[2].WalletID != "Z" {
		t.Errorf("ties should break by wallet id, got %s %s %s", top[0].WalletID, top[1].WalletID, top[2].WalletID)
	}
	if ws[0].WalletID != "Z" {
		t.Error("input slice must not be reordered")
	}
}

func TestTopSanctionsExposed(t *testing.T) {
	ws := SummarizeWallets(fixture())
	top := TopSanctionsExposed(ws, 10)
	if len(top) != 2 {
		t.Fatalf("expected 2 exposed wallets, got %d", len(top))
	}
	if top[0].WalletID != "A" || top[1].WalletID != "C" {
		t.Errorf("unexpected order: %s, %s", top[0].WalletID, top[1].WalletID)
	}
}

func TestTopWhales(t *testing.T) {
	top := TopWhales(SummarizeWallets(fixture()), 1)
	if len(top) != 1 || top[0].WalletID != "B" {
		t.Errorf("expected B as top whale, got %+v", top)
	}
}

func TestComputeFlaggedWallets(t *testing.T) {
	scored := append(fixture(), row("C", "USDC", 3, 200, 50, true))

	flagged := ComputeFlaggedWallets(scored, 0)
	if len(flagged) != 2 {
		t.Fatalf("expected 2 flagged wallets, got %d", len(flagged))
	}
	if flagged[0].WalletID != "C" || !almostEqual(flagged[0].SanctionedVolume, 250) {
		t.Errorf("unexpected first: %+v", flagged[0])
	}
	if flagged[0].SanctionedTransactions != 2 {
		t.Errorf("expected 2 sanctioned tx for C, got %d", flagged[0].SanctionedTransactions)
	}

	flagged = ComputeFlaggedWallets(scored, 200)
	if len(flagged) != 1 {
		t.Errorf("min volume should drop A, got %d wallets", len(flagged))
	}
}

func TestSummarizeWallets_Empty(t *testing.T) {
	if ws := SummarizeWallets([]domain.ScoredTransaction{}); len(ws) != 0 {
		t.Errorf("expected no wallets, got %d", len(ws))
	}
}
