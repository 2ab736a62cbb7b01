package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/metrics"
)

// RenderScoredTransactionsCSV renders scored rows with canonical column names.
func RenderScoredTransactionsCSV(scored []domain.ScoredTransaction) string {
	header := []string{
		"tx_id", "date", "hour", "token", "wallet_id", "volume_usd", "sanctioned",
		domain.FieldVolumeScore, domain.FieldTokenProfileScore, domain.FieldConcentrationScore,
		domain.FieldVelocityScore, domain.FieldSanctionsScore, domain.FieldBurstScore,
		domain.FieldTimeScore, domain.FieldRiskScore,
	}

	rows := make([][]string, 0, len(scored))
	for i := range scored {
		st := &scored[i]
		date := ""
		if !st.Date.IsZero() {
			date = st.Date.Format(domain.DateLayout)
		}
		hour := ""
		if st.HasHour() {
			hour = strconv.Itoa(*st.Hour)
		}
		sc := st.Scores
		rows = append(rows, []string{
			st.TxID, date, hour, st.Token, st.WalletID,
			formatFloat(st.VolumeUSD), formatBool(st.Sanctioned),
			formatFloat(sc.Volume), formatFloat(sc.TokenProfile), formatFloat(sc.Concentration),
			formatFloat(sc.Velocity), formatFloat(sc.Sanctions), formatFloat(sc.Burst),
			formatFloat(sc.Time), formatFloat(sc.Risk),
		})
	}
	return renderCSV(header, rows)
}

// RenderWalletSummaryCSV renders per-wallet aggregates.
func RenderWalletSummaryCSV(wallets []metrics.WalletSummary) string {
	header := []string{
		"wallet_id", "tx_count", "total_volume_usd", "avg_risk_score",
		"max_risk_score", "sanctioned_volume_usd", "has_sanctions",
	}

	rows := make([][]string, 0, len(wallets))
	for _, w := range wallets {
		rows = append(rows, []string{
			w.WalletID, strconv.Itoa(w.TransactionCount), formatFloat(w.TotalVolume),
			formatFloat(w.AverageRisk), formatFloat(w.MaxRisk),
			formatFloat(w.SanctionedVolume), formatBool(w.HasSanctions),
		})
	}
	return renderCSV(header, rows)
}

// RenderTokenAveragesCSV renders per-token component averages.
func RenderTokenAveragesCSV(avgs []metrics.TokenAverages) string {
	header := []string{
		"token", "tx_count",
		domain.FieldVolumeScore, domain.FieldTokenProfileScore, domain.FieldConcentrationScore,
		domain.FieldVelocityScore, domain.FieldSanctionsScore, domain.FieldBurstScore,
		domain.FieldTimeScore, domain.FieldRiskScore,
	}

	rows := make([][]string, 0, len(avgs))
	for _, ta := range avgs {
		rows = append(rows, []string{
			ta.Token, strconv.Itoa(ta.Transactions),
			formatFloat(ta.Volume), formatFloat(ta.TokenProfile), formatFloat(ta.Concentration),
			formatFloat(ta.Velocity), formatFloat(ta.Sanctions), formatFloat(ta.Burst),
			formatFloat(ta.Time), formatFloat(ta.Risk),
		})
	}
	return renderCSV(header, rows)
}

// renderCSV quotes fields as needed; wallet ids are free text.
func renderCSV(header []string, rows [][]string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	// strings.Builder writes never fail, so Write errors are unreachable.
	_ = w.Write(header)
	_ = w.WriteAll(rows)
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
