package memory

import (
	"context"
	"errors"
	"testing"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/storage"
)

func scored(id, wallet string, risk float64) domain.ScoredTransaction {
	return domain.ScoredTransaction{
		Transaction: testTx(id, 1, wallet, 100),
		Scores:      domain.ComponentScores{Volume: 50, Risk: risk},
	}
}

func TestRiskScoreStore_InsertAndGetByRun(t *testing.T) {
	store := NewRiskScoreStore()
	ctx := context.Background()

	rows := []domain.ScoredTransaction{
		scored("t2", "W1", 80),
		scored("t1", "W2", 20),
		scored("t3", "W1", 60),
	}
	if err := store.InsertBulk(ctx, "run1", rows); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 3 || got[0].TxID != "t2" || got[2].TxID != "t3" {
		t.Errorf("expected row order preserved, got %+v", got)
	}
	if got[0].Scores.Risk != 80 {
		t.Errorf("expected risk 80, got %v", got[0].Scores.Risk)
	}

	w1, err := store.GetByWallet(ctx, "run1", "W1")
	if err != nil {
		t.Fatalf("GetByWallet failed: %v", err)
	}
	if len(w1) != 2 || w1[0].TxID != "t2" || w1[1].TxID != "t3" {
		t.Errorf("unexpected wallet rows: %+v", w1)
	}

	empty, err := store.GetByRun(ctx, "unknown")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result for unknown run, got %v (%v)", empty, err)
	}
}

func TestRiskScoreStore_Duplicates(t *testing.T) {
	store := NewRiskScoreStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "run1", []domain.ScoredTransaction{scored("t1", "W", 1)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "run1", []domain.ScoredTransaction{scored("t2", "W", 1)}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for rewritten run, got %v", err)
	}
	if err := store.InsertBulk(ctx, "run2", []domain.ScoredTransaction{scored("t1", "W", 1), scored("t1", "W", 1)}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for repeated tx, got %v", err)
	}
	if err := store.InsertBulk(ctx, "", []domain.ScoredTransaction{scored("t1", "W", 1)}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty run id, got %v", err)
	}
}
