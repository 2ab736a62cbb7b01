package metrics

import (
	"sort"
	"time"

	"stablecoin-risk-monitor/internal/domain"
)

// TokenAverages holds per-token means of every score.
type TokenAverages struct {
	Token         string
	Transactions  int
	Volume        float64
	TokenProfile  float64
	Concentration float64
	Velocity      float64
	Sanctions     float64
	Burst         float64
	Time          float64
	Risk          float64
}

// ComputeTokenAverages averages component scores per token, sorted by token.
func ComputeTokenAverages(scored []domain.ScoredTransaction) []TokenAverages {
	sums := make(map[string]*TokenAverages)
	for i := range scored {
		st := &scored[i]
		ta, ok := sums[st.Token]
		if !ok {
			ta = &TokenAverages{Token: st.Token}
			sums[st.Token] = ta
		}
		sc := st.Scores
		ta.Transactions++
		ta.Volume += sc.Volume
		ta.TokenProfile += sc.TokenProfile
		ta.Concentration += sc.Concentration
		ta.Velocity += sc.Velocity
		ta.Sanctions += sc.Sanctions
		ta.Burst += sc.Burst
		ta.Time += sc.Time
		ta.Risk += sc.Risk
	}

	result := make([]TokenAverages, 0, len(sums))
	for _, ta := range sums {
		n := float64(ta.Transactions)
		ta.Volume /= n
		ta.TokenProfile /= n
		ta.Concentration /= n
		ta.Velocity /= n
		ta.Sanctions /= n
		ta.Burst /= n
		ta.Time /= n
		ta.Risk /= n
		result = append(result, *ta)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Token < result[j].Token
	})
	return result
}

// TokenVolume is a token's summed USD volume.
type TokenVolume struct {
	Token  string
	Volume float64
}

// VolumeByToken sums volume per token, sorted by volume DESC then token ASC.
func VolumeByToken(scored []domain.ScoredTransaction) []TokenVolume {
	return volumeByToken(scored, func(*domain.ScoredTransaction) bool { return true })
}

// SanctionedByToken sums sanctioned volume per token, sorted like VolumeByToken.
// Tokens without sanctioned volume are omitted.
func SanctionedByToken(scored []domain.ScoredTransaction) []TokenVolume {
	return volumeByToken(scored, func(st *domain.ScoredTransaction) bool { return st.Sanctioned })
}

func volumeByToken(scored []domain.ScoredTransaction, include func(*domain.ScoredTransaction) bool) []TokenVolume {
	sums := make(map[string]float64)
	for i := range scored {
		if include(&scored[i]) {
			sums[scored[i].Token] += scored[i].VolumeUSD
		}
	}

	result := make([]TokenVolume, 0, len(sums))
	for token, v := range sums {
		result = append(result, TokenVolume{Token: token, Volume: v})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Volume != result[j].Volume {
			return result[i].Volume > result[j].Volume
		}
		return result[i].Token < result[j].Token
	})
	return result
}

// DailyFlow splits one day's volume by sanctions status.
type DailyFlow struct {
	Date             time.Time
	CleanVolume      float64
	SanctionedVolume float64
}

// ComputeDailyFlows groups volume by day, sorted by date. Undated rows are skipped.
func ComputeDailyFlows(scored []domain.ScoredTransaction) []DailyFlow {
	byDay := make(map[time.Time]*DailyFlow)
	for i := range scored {
		st := &scored[i]
		if st.Date.IsZero() {
			continue
		}
		d := dayOf(st.Date)
		df, ok := byDay[d]
		if !ok {
			df = &DailyFlow{Date: d}
			byDay[d] = df
		}
		if st.Sanctioned {
			df.SanctionedVolume += st.VolumeUSD
		} else {
			df.CleanVolume += st.VolumeUSD
		}
	}

	result := make([]DailyFlow, 0, len(byDay))
	for _, df := range byDay {
		result = append(result, *df)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

// TokenDailyVolume is one (day, token) volume cell.
type TokenDailyVolume struct {
	Date   time.Time
	Token  string
	Volume float64
}

// ComputeTokenDailyVolume groups volume by (day, token), sorted by date then token.
func ComputeTokenDailyVolume(scored []domain.ScoredTransaction) []TokenDailyVolume {
	type key struct {
		day   time.Time
		token string
	}
	sums := make(map[key]float64)
	for i := range scored {
		st := &scored[i]
		if st.Date.IsZero() {
			continue
		}
		sums[key{dayOf(st.Date), st.Token}] += st.VolumeUSD
	}

	result := make([]TokenDailyVolume, 0, len(sums))
	for k, v := range sums {
		result = append(result, TokenDailyVolume{Date: k.day, Token: k.token, Volume: v})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Token < result[j].Token
	})
	return result
}
