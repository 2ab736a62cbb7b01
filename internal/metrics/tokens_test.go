package metrics

import (
	"testing"
)

func TestComputeTokenAverages(t *testing.T) {
	avgs := ComputeTokenAverages(fixture())
	if len(avgs) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(avgs))
	}
	if avgs[0].Token != "USDC" || avgs[1].Token != "USDT" {
		t.Fatalf("expected sorted tokens, got %s, %s", avgs[0].Token, avgs[1].Token)
	}

	// USDC risks: 40, 90
	if avgs[0].Transactions != 2 || !almostEqual(avgs[0].Risk, 65) {
		t.Errorf("USDC: unexpected %+v", avgs[0])
	}
	if !almostEqual(avgs[0].Volume, 32.5) {
		t.Errorf("USDC volume score avg: expected 32.5, got %v", avgs[0].Volume)
	}
	// USDT risks: 80, 60, 20
	if avgs[1].Transactions != 3 || !almostEqual(avgs[1].Risk, 160.0/3) {
		t.Errorf("USDT: unexpected %+v", avgs[1])
	}
}

func TestVolumeByToken(t *testing.T) {
	vols := VolumeByToken(fixture())
	if len(vols) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(vols))
	}
	if vols[0].Token != "USDC" || !almostEqual(vols[0].Volume, 1050) {
		t.Errorf("unexpected first: %+v", vols[0])
	}
	if vols[1].Token != "USDT" || !almostEqual(vols[1].Volume, 450) {
		t.Errorf("unexpected second: %+v", vols[1])
	}
}

func TestSanctionedByToken(t *testing.T) {
	vols := SanctionedByToken(fixture())
	if len(vols) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(vols))
	}
	if vols[0].Token != "USDT" || !almostEqual(vols[0].Volume, 100) {
		t.Errorf("unexpected first: %+v", vols[0])
	}
	if vols[1].Token != "USDC" || !almostEqual(vols[1].Volume, 50) {
		t.Errorf("unexpected second: %+v", vols[1])
	}
}

func TestComputeDailyFlows(t *testing.T) {
	scored := append(fixture(), row("D", "DAI", 0, 999, 10, true))

	flows := ComputeDailyFlows(scored)
	if len(flows) != 3 {
		t.Fatalf("expected 3 days (undated skipped), got %d", len(flows))
	}
	if !flows[0].Date.Equal(day(1)) {
		t.Errorf("expected day 1 first, got %v", flows[0].Date)
	}
	if !almostEqual(flows[0].CleanVolume, 1000) || !almostEqual(flows[0].SanctionedVolume, 100) {
		t.Errorf("day 1: unexpected %+v", flows[0])
	}
	if !almostEqual(flows[2].CleanVolume, 50) || !almostEqual(flows[2].SanctionedVolume, 50) {
		t.Errorf("day 3: unexpected %+v", flows[2])
	}
}

func TestComputeTokenDailyVolume(t *testing.T) {
	cells := ComputeTokenDailyVolume(fixture())
	// day1: USDC, USDT; day2: USDT; day3: USDC, USDT
	if len(cells) != 5 {
		t.Fatalf("expected 5 cells, got %d", len(cells))
	}
	if cells[0].Token != "USDC" || !cells[0].Date.Equal(day(1)) {
		t.Errorf("unexpected first cell: %+v", cells[0])
	}
	if cells[1].Token != "USDT" || !almostEqual(cells[1].Volume, 100) {
		t.Errorf("unexpected second cell: %+v", cells[1])
	}
}
