package ingest

import (
	"testing"

	"stablecoin-risk-monitor/internal/domain"
)

func TestGenerateDemo_Deterministic(t *testing.T) {
	cfg := DefaultDemoConfig()
	a := GenerateDemo(cfg)
	b := GenerateDemo(cfg)

	if len(a) != len(b) {
		t.Fatalf("expected same length, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].WalletID != b[i].WalletID || a[i].VolumeUSD != b[i].VolumeUSD || *a[i].Hour != *b[i].Hour {
			t.Fatalf("row %d differs between runs", i)
		}
	}
}

func TestGenerateDemo_Bounds(t *testing.T) {
	cfg := DefaultDemoConfig()
	cfg.Days = 10
	txs := GenerateDemo(cfg)

	if len(txs) < 10*demoMinTxPerDay || len(txs) > 10*demoMaxTxPerDay {
		t.Errorf("unexpected row count %d", len(txs))
	}

	perDay := make(map[string]int)
	for _, tx := range txs {
		perDay[tx.Date.Format(domain.DateLayout)]++
		if tx.VolumeUSD < demoMinVolume || tx.VolumeUSD >= demoMaxVolume {
			t.Errorf("volume out of range: %v", tx.VolumeUSD)
		}
		if tx.Hour == nil || *tx.Hour < domain.MinHour || *tx.Hour > domain.MaxHour {
			t.Errorf("hour out of range: %v", tx.Hour)
		}
		if tx.Token != domain.TokenUSDT && tx.Token != domain.TokenUSDC {
			t.Errorf("unexpected token %s", tx.Token)
		}
	}
	if len(perDay) != 10 {
		t.Errorf("expected 10 days, got %d", len(perDay))
	}
	for day, n := range perDay {
		if n < demoMinTxPerDay || n > demoMaxTxPerDay {
			t.Errorf("day %s has %d transfers", day, n)
		}
	}
}

func TestGenerateDemo_Empty(t *testing.T) {
	txs := GenerateDemo(DemoConfig{})
	if txs == nil || len(txs) != 0 {
		t.Errorf("expected empty table, got %v", txs)
	}
}
