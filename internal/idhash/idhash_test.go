package idhash

import (
	"testing"
	"time"

	"stablecoin-risk-monitor/internal/domain"
)

func TestComputeTransactionID(t *testing.T) {
	id1 := ComputeTransactionID("demo.csv", 0)
	id2 := ComputeTransactionID("demo.csv", 0)
	id3 := ComputeTransactionID("demo.csv", 1)
	id4 := ComputeTransactionID("real.csv", 0)

	if len(id1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(id1))
	}
	if id1 != id2 {
		t.Errorf("expected deterministic id")
	}
	if id1 == id3 || id1 == id4 {
		t.Errorf("expected different ids for different source positions")
	}
}

func TestTableDigest(t *testing.T) {
	h := 3
	base := []domain.Transaction{
		{TxID: "a", Date: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), Hour: &h, Token: "USDT", WalletID: "Wallet 1", VolumeUSD: 100},
		{TxID: "b", Date: time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC), Token: "USDC", WalletID: "Wallet 2", VolumeUSD: 50, Sanctioned: true},
	}

	renamed := make([]domain.Transaction, len(base))
	copy(renamed, base)
	renamed[0].TxID = "other"

	if TableDigest(base) != TableDigest(renamed) {
		t.Errorf("expected tx id to be excluded from digest")
	}

	changed := make([]domain.Transaction, len(base))
	copy(changed, base)
	changed[1].Sanctioned = false
	if TableDigest(base) == TableDigest(changed) {
		t.Errorf("expected sanctions flag to change digest")
	}

	swapped := []domain.Transaction{base[1], base[0]}
	if TableDigest(base) == TableDigest(swapped) {
		t.Errorf("expected row order to change digest")
	}

	if TableDigest(nil) == TableDigest(base) {
		t.Errorf("expected empty table digest to differ")
	}
}

func TestAnonymizeWallet(t *testing.T) {
	addr := "0xab5801a7d398351b8be11c439e05c5b3259aec9b"

	a := AnonymizeWallet(addr, "salt-1")
	if a != AnonymizeWallet(addr, "salt-1") {
		t.Errorf("expected deterministic anonymization")
	}
	if a == AnonymizeWallet(addr, "salt-2") {
		t.Errorf("expected salt to change the id")
	}
	if a[0] != 'W' {
		t.Errorf("expected W prefix, got %q", a)
	}
}

func TestSequentialWallets(t *testing.T) {
	s := NewSequentialWallets()

	if got := s.Label("0xaaa"); got != "Wallet 1" {
		t.Errorf("expected Wallet 1, got %s", got)
	}
	if got := s.Label("0xbbb"); got != "Wallet 2" {
		t.Errorf("expected Wallet 2, got %s", got)
	}
	if got := s.Label("0xaaa"); got != "Wallet 1" {
		t.Errorf("expected repeat address to keep Wallet 1, got %s", got)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 labels, got %d", s.Len())
	}
}
