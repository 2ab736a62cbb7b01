package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC)
}

func testTx(id string, d int, wallet string, volume float64) domain.Transaction {
	h := 5
	return domain.Transaction{
		TxID:      id,
		Date:      day(d),
		Hour:      &h,
		Token:     domain.TokenUSDT,
		WalletID:  wallet,
		VolumeUSD: volume,
	}
}

func TestTransactionStore_InsertBulkAndGetAll(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	txs := []domain.Transaction{
		testTx("t3", 3, "W1", 300),
		testTx("t1", 1, "W2", 100),
		testTx("t2", 2, "W1", 200),
	}
	if err := store.InsertBulk(ctx, txs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	for i, id := range []string{"t3", "t1", "t2"} {
		if got[i].TxID != id {
			t.Errorf("row %d: expected %s (insertion order), got %s", i, id, got[i].TxID)
		}
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("expected count 3, got %d (%v)", n, err)
	}
}

func TestTransactionStore_DuplicateKey(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []domain.Transaction{testTx("t1", 1, "W", 1)}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []domain.Transaction{testTx("t2", 1, "W", 1), testTx("t1", 1, "W", 1)})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Batch is atomic: t2 must not have been inserted.
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("expected count 1 after failed batch, got %d", n)
	}

	err = store.InsertBulk(ctx, []domain.Transaction{testTx("t5", 1, "W", 1), testTx("t5", 1, "W", 1)})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}
}

func TestTransactionStore_InvalidInput(t *testing.T) {
	store := NewTransactionStore()
	err := store.InsertBulk(context.Background(), []domain.Transaction{testTx("", 1, "W", 1)})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTransactionStore_GetByDateRange(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	undated := testTx("t0", 1, "W", 1)
	undated.Date = time.Time{}

	txs := []domain.Transaction{
		undated,
		testTx("t1", 1, "W", 1),
		testTx("t2", 2, "W", 1),
		testTx("t3", 3, "W", 1),
		testTx("t4", 4, "W", 1),
	}
	if err := store.InsertBulk(ctx, txs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByDateRange(ctx, day(2), day(3).Add(15*time.Hour))
	if err != nil {
		t.Fatalf("GetByDateRange failed: %v", err)
	}
	if len(got) != 2 || got[0].TxID != "t2" || got[1].TxID != "t3" {
		t.Errorf("expected t2,t3, got %+v", got)
	}
}

func TestTransactionStore_CopyOnRead(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []domain.Transaction{testTx("t1", 1, "W", 1)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, _ := store.GetAll(ctx)
	*got[0].Hour = 20
	got[0].VolumeUSD = 999

	again, _ := store.GetAll(ctx)
	if *again[0].Hour != 5 || again[0].VolumeUSD != 1 {
		t.Errorf("expected stored row to be unaffected by caller mutation")
	}
}
