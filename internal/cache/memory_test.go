package cache

import (
	"context"
	"testing"
)

func TestMemoryMemo_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMemo(2)
	scored := sampleScored(t)

	if _, ok, _ := m.Get(ctx, "k1"); ok {
		t.Fatal("expected miss on empty memo")
	}
	if err := m.Set(ctx, "k1", scored); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := m.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != len(scored) {
		t.Fatalf("expected %d rows, got %d", len(scored), len(got))
	}
	if got[0].Scores != scored[0].Scores {
		t.Errorf("scores differ: %+v vs %+v", got[0].Scores, scored[0].Scores)
	}
}

func TestMemoryMemo_CopyIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMemo(2)
	scored := sampleScored(t)
	_ = m.Set(ctx, "k", scored)

	scored[0].Scores.Risk = -1
	*scored[0].Hour = 99

	got, _, _ := m.Get(ctx, "k")
	if got[0].Scores.Risk == -1 {
		t.Error("cached entry mutated through input slice")
	}
	if *got[0].Hour != 3 {
		t.Errorf("cached hour mutated through input pointer: %d", *got[0].Hour)
	}

	got[0].WalletID = "changed"
	again, _, _ := m.Get(ctx, "k")
	if again[0].WalletID == "changed" {
		t.Error("cached entry mutated through returned slice")
	}
}

func TestMemoryMemo_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMemo(2)
	scored := sampleScored(t)

	_ = m.Set(ctx, "k1", scored)
	_ = m.Set(ctx, "k2", scored)
	_ = m.Set(ctx, "k1", scored) // replace, no reorder
	_ = m.Set(ctx, "k3", scored)

	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
	if _, ok, _ := m.Get(ctx, "k1"); ok {
		t.Error("k1 should have been evicted first")
	}
	for _, k := range []string{"k2", "k3"} {
		if _, ok, _ := m.Get(ctx, k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
}

func TestNewMemoryMemo_DefaultCapacity(t *testing.T) {
	m := NewMemoryMemo(0)
	if m.capacity != DefaultMemoryCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultMemoryCapacity, m.capacity)
	}
}
