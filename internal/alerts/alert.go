// Package alerts selects high-risk transactions and publishes them to sinks.
package alerts

import (
	"context"
	"sort"
	"time"

	"stablecoin-risk-monitor/internal/domain"
)

// Alert reasons.
const (
	ReasonRiskThreshold = "risk_threshold"
	ReasonSanctioned    = "sanctioned"
)

// Alert is one published high-risk transaction.
type Alert struct {
	RunID      string    `json:"run_id"`
	TxID       string    `json:"tx_id"`
	WalletID   string    `json:"wallet_id"`
	Token      string    `json:"token"`
	Date       string    `json:"date,omitempty"` // YYYY-MM-DD
	VolumeUSD  float64   `json:"volume_usd"`
	RiskScore  float64   `json:"risk_score"`
	Sanctioned bool      `json:"sanctioned"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sink publishes alerts.
type Sink interface {
	Publish(ctx context.Context, alerts []Alert) error
	Close() error
}

// Select picks rows with risk >= threshold or a sanctions flag.
// Result is sorted by risk DESC, then tx_id ASC.
func Select(runID string, scored []domain.ScoredTransaction, threshold float64, now time.Time) []Alert {
	result := make([]Alert, 0)
	for i := range scored {
		st := &scored[i]
		reason := ""
		switch {
		case st.Scores.Risk >= threshold:
			reason = ReasonRiskThreshold
		case st.Sanctioned:
			reason = ReasonSanctioned
		default:
			continue
		}

		date := ""
		if !st.Date.IsZero() {
			date = st.Date.Format(domain.DateLayout)
		}
		result = append(result, Alert{
			RunID:      runID,
			TxID:       st.TxID,
			WalletID:   st.WalletID,
			Token:      st.Token,
			Date:       date,
			VolumeUSD:  st.VolumeUSD,
			RiskScore:  st.Scores.Risk,
			Sanctioned: st.Sanctioned,
			Reason:     reason,
			CreatedAt:  now,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RiskScore != result[j].RiskScore {
			return result[i].RiskScore > result[j].RiskScore
		}
		return result[i].TxID < result[j].TxID
	})
	return result
}
