package metrics

import (
	"sort"

	"stablecoin-risk-monitor/internal/domain"
)

// WalletSummary is one wallet's row on the Top Flags views.
type WalletSummary struct {
	WalletID         string
	TotalVolume      float64
	TransactionCount int
	AverageRisk      float64
	MaxRisk          float64
	SanctionedVolume float64
	HasSanctions     bool
}

// SummarizeWallets groups scored rows by wallet. Result is sorted by wallet_id.
func SummarizeWallets(scored []domain.ScoredTransaction) []WalletSummary {
	byWallet := make(map[string]*WalletSummary)
	riskSums := make(map[string]float64)

	for i := range scored {
		st := &scored[i]
		ws, ok := byWallet[st.WalletID]
		if !ok {
			ws = &WalletSummary{WalletID: st.WalletID, MaxRisk: st.Scores.Risk}
			byWallet[st.WalletID] = ws
		}
		ws.TotalVolume += st.VolumeUSD
		ws.TransactionCount++
		riskSums[st.WalletID] += st.Scores.Risk
		if st.Scores.Risk > ws.MaxRisk {
			ws.MaxRisk = st.Scores.Risk
		}
		if st.Sanctioned {
			ws.SanctionedVolume += st.VolumeUSD
			ws.HasSanctions = true
		}
	}

	result := make([]WalletSummary, 0, len(byWallet))
	for id, ws := range byWallet {
		ws.AverageRisk = riskSums[id] / float64(ws.TransactionCount)
		result = append(result, *ws)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].WalletID < result[j].WalletID
	})
	return result
}

// TopByAverageRisk returns the n wallets with the highest average risk.
// Ties break on wallet_id ASC. n <= 0 returns all.
func TopByAverageRisk(wallets []WalletSummary, n int) []WalletSummary {
	return topBy(wallets, n, func(w WalletSummary) float64 { return w.AverageRisk })
}

// TopSanctionsExposed returns the n wallets with the most sanctioned volume,
// considering only wallets with sanctioned activity.
func TopSanctionsExposed(wallets []WalletSummary, n int) []WalletSummary {
	exposed := make([]WalletSummary, 0)
	for _, w := range wallets {
		if w.HasSanctions {
			exposed = append(exposed, w)
		}
	}
	return topBy(exposed, n, func(w WalletSummary) float64 { return w.SanctionedVolume })
}

// TopWhales returns the n wallets with the largest total volume.
func TopWhales(wallets []WalletSummary, n int) []WalletSummary {
	return topBy(wallets, n, func(w WalletSummary) float64 { return w.TotalVolume })
}

func topBy(wallets []WalletSummary, n int, key func(WalletSummary) float64) []WalletSummary {
	sorted := make([]WalletSummary, len(wallets))
	copy(sorted, wallets)
	sort.SliceStable(sorted, func(i, j int) bool {
		ki, kj := key(sorted[i]), key(sorted[j])
		if ki != kj {
			return ki > kj
		}
		return sorted[i].WalletID < sorted[j].WalletID
	})
	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// FlaggedWallet aggregates a wallet's sanctioned transactions only.
type FlaggedWallet struct {
	WalletID               string
	SanctionedVolume       float64
	SanctionedTransactions int
}

// ComputeFlaggedWallets lists wallets whose sanctioned volume is at least
// minVolume, sorted by sanctioned volume DESC then wallet_id ASC.
func ComputeFlaggedWallets(scored []domain.ScoredTransaction, minVolume float64) []FlaggedWallet {
	byWallet := make(map[string]*FlaggedWallet)
	for i := range scored {
		st := &scored[i]
		if !st.Sanctioned {
			continue
		}
		fw, ok := byWallet[st.WalletID]
		if !ok {
			fw = &FlaggedWallet{WalletID: st.WalletID}
			byWallet[st.WalletID] = fw
		}
		fw.SanctionedVolume += st.VolumeUSD
		fw.SanctionedTransactions++
	}

	result := make([]FlaggedWallet, 0, len(byWallet))
	for _, fw := range byWallet {
		if fw.SanctionedVolume >= minVolume {
			result = append(result, *fw)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SanctionedVolume != result[j].SanctionedVolume {
			return result[i].SanctionedVolume > result[j].SanctionedVolume
		}
		return result[i].WalletID < result[j].WalletID
	})
	return result
}
