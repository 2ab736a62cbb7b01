package metrics

import (
	"fmt"
	"math"
	"time"

	"stablecoin-risk-monitor/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC)
}

func row(wallet, token string, d int, volume, risk float64, sanctioned bool) domain.ScoredTransaction {
	var date time.Time
	if d > 0 {
		date = day(d)
	}
	return domain.ScoredTransaction{
		Transaction: domain.Transaction{
			TxID:       fmt.Sprintf("%s-%s-%d-%v-%v", wallet, token, d, volume, risk),
			Date:       date,
			Token:      token,
			WalletID:   wallet,
			VolumeUSD:  volume,
			Sanctioned: sanctioned,
		},
		Scores: domain.ComponentScores{Risk: risk, Volume: risk / 2},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// fixture: three wallets over three days, two tokens.
func fixture() []domain.ScoredTransaction {
	return []domain.ScoredTransaction{
		row("A", "USDT", 1, 100, 80, true),
		row("A", "USDT", 2, 300, 60, false),
		row("B", "USDC", 1, 1000, 40, false),
		row("C", "USDC", 3, 50, 90, true),
		row("C", "USDT", 3, 50, 20, false),
	}
}
