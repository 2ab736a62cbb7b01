package reporting

import (
	"encoding/csv"
	"strings"
	"testing"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/metrics"
)

func TestRenderScoredTransactionsCSV(t *testing.T) {
	scored := setupScored(t)
	out := RenderScoredTransactionsCSV(scored)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != len(scored)+1 {
		t.Fatalf("expected %d records, got %d", len(scored)+1, len(records))
	}

	header := strings.Join(records[0], ",")
	want := "tx_id,date,hour,token,wallet_id,volume_usd,sanctioned,volume_score,token_profile_score," +
		"concentration_score,velocity_score,sanctions_score,burst_score,time_score,risk_score"
	if header != want {
		t.Errorf("header:\nexpected %s\ngot      %s", want, header)
	}

	first := records[1]
	if first[0] != "t1" || first[1] != "2025-10-01" || first[2] != "1" || first[6] != "1" {
		t.Errorf("unexpected first row: %v", first)
	}
}

func TestRenderScoredTransactionsCSV_OptionalFields(t *testing.T) {
	scored := []domain.ScoredTransaction{
		{Transaction: domain.Transaction{TxID: "x", Token: "USDT", WalletID: "w, with comma", VolumeUSD: 1.5}},
	}
	records, err := csv.NewReader(strings.NewReader(RenderScoredTransactionsCSV(scored))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	row := records[1]
	if row[1] != "" || row[2] != "" {
		t.Errorf("expected empty date and hour, got %q %q", row[1], row[2])
	}
	if row[4] != "w, with comma" {
		t.Errorf("wallet id not preserved: %q", row[4])
	}
	if row[5] != "1.500000" {
		t.Errorf("volume: expected 1.500000, got %s", row[5])
	}
}

func TestRenderWalletSummaryCSV(t *testing.T) {
	wallets := []metrics.WalletSummary{
		{WalletID: "A", TransactionCount: 2, TotalVolume: 10, AverageRisk: 50, MaxRisk: 60, SanctionedVolume: 5, HasSanctions: true},
	}
	out := RenderWalletSummaryCSV(wallets)

	want := "wallet_id,tx_count,total_volume_usd,avg_risk_score,max_risk_score,sanctioned_volume_usd,has_sanctions\n" +
		"A,2,10.000000,50.000000,60.000000,5.000000,1\n"
	if out != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, out)
	}
}

func TestRenderTokenAveragesCSV(t *testing.T) {
	out := RenderTokenAveragesCSV(nil)
	want := "token,tx_count,volume_score,token_profile_score,concentration_score,velocity_score," +
		"sanctions_score,burst_score,time_score,risk_score\n"
	if out != want {
		t.Errorf("expected header only, got %q", out)
	}
}
