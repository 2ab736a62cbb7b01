package scoring

import (
	"sort"

	"stablecoin-risk-monitor/internal/domain"
)

// walletAccumulator collects per-wallet sums during the single aggregation pass.
type walletAccumulator struct {
	agg          domain.WalletAggregate
	hourlyCounts [domain.HoursPerDay]int
}

// AggregateWallets reduces the table to one aggregate per wallet in a single
// pass. Every wallet-level scorer reads from this result. Aggregates are
// returned sorted by wallet id.
func AggregateWallets(txs []domain.Transaction) []domain.WalletAggregate {
	accs := make(map[string]*walletAccumulator)

	for i := range txs {
		tx := &txs[i]
		acc, ok := accs[tx.WalletID]
		if !ok {
			acc = &walletAccumulator{agg: domain.WalletAggregate{WalletID: tx.WalletID}}
			accs[tx.WalletID] = acc
		}

		acc.agg.TotalVolume += tx.VolumeUSD
		acc.agg.TransactionCount++
		if tx.Sanctioned {
			acc.agg.SanctionedVolume += tx.VolumeUSD
		}
		if tx.HasHour() && *tx.Hour >= domain.MinHour && *tx.Hour <= domain.MaxHour {
			acc.hourlyCounts[*tx.Hour-domain.MinHour]++
		}
	}

	result := make([]domain.WalletAggregate, 0, len(accs))
	for _, acc := range accs {
		for _, count := range acc.hourlyCounts {
			if count == 0 {
				continue
			}
			acc.agg.DistinctActiveHours++
			if count > acc.agg.MaxHourlyTransactionCount {
				acc.agg.MaxHourlyTransactionCount = count
			}
		}
		result = append(result, acc.agg)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].WalletID < result[j].WalletID
	})
	return result
}
