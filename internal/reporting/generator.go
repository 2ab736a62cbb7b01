// Package reporting renders scored transaction tables as Markdown and CSV.
package reporting

import (
	"fmt"
	"sort"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/metrics"
	"stablecoin-risk-monitor/internal/scoring"
)

// ErrInvalidFilter is returned when the filter's date range is inverted.
var ErrInvalidFilter = metrics.ErrInvalidFilter

// Generator produces reports from scored tables.
type Generator struct {
	policy scoring.Policy
	topN   int
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. The policy is only
// described in the methodology section; it is not re-applied.
func NewGenerator(policy scoring.Policy) *Generator {
	return &Generator{
		policy: policy,
		topN:   metrics.DefaultTopN,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTopN sets the length of wallet rankings.
func (g *Generator) WithTopN(n int) *Generator {
	if n > 0 {
		g.topN = n
	}
	return g
}

// Generate produces a report over the rows matching f.
func (g *Generator) Generate(scored []domain.ScoredTransaction, f metrics.Filter) (*Report, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	rows := metrics.Apply(scored, f)
	dashboard := metrics.Compute(rows, metrics.Filter{}, g.topN)
	dashboard.Filter = f

	return &Report{
		GeneratedAt: g.now(),
		Filter:      f,
		Policy:      g.policy,
		DataSummary: generateDataSummary(rows),
		DataQuality: g.generateDataQuality(rows),
		Dashboard:   dashboard,
		Wallets:     metrics.SummarizeWallets(rows),
		Scored:      rows,
	}, nil
}

func generateDataSummary(rows []domain.ScoredTransaction) DataSummary {
	wallets := make(map[string]struct{})
	tokens := make(map[string]struct{})
	var start, end time.Time

	for i := range rows {
		st := &rows[i]
		wallets[st.WalletID] = struct{}{}
		tokens[st.Token] = struct{}{}
		if st.Date.IsZero() {
			continue
		}
		if start.IsZero() || st.Date.Before(start) {
			start = st.Date
		}
		if end.IsZero() || st.Date.After(end) {
			end = st.Date
		}
	}

	tokenList := make([]string, 0, len(tokens))
	for token := range tokens {
		tokenList = append(tokenList, token)
	}
	sort.Strings(tokenList)

	return DataSummary{
		TotalTransactions: len(rows),
		TotalWallets:      len(wallets),
		Tokens:            tokenList,
		DateRangeStart:    start,
		DateRangeEnd:      end,
	}
}

// generateDataQuality reports coverage of the optional inputs that
// individual components depend on.
func (g *Generator) generateDataQuality(rows []domain.ScoredTransaction) DataQualitySection {
	n := len(rows)
	var withHour, withDate, knownToken int
	for i := range rows {
		st := &rows[i]
		if st.HasHour() {
			withHour++
		}
		if !st.Date.IsZero() {
			withDate++
		}
		if _, ok := g.policy.TokenBaselines[st.Token]; ok {
			knownToken++
		}
	}

	checks := []QualityCheckRow{
		{
			Name:      "Rows scored",
			Threshold: "> 0",
			Actual:    fmt.Sprintf("%d", n),
			Pass:      n > 0,
		},
		{
			Name:      "Hour coverage (burst/time)",
			Threshold: "100%",
			Actual:    coverage(withHour, n),
			Pass:      n > 0 && withHour == n,
		},
		{
			Name:      "Date coverage (daily flows)",
			Threshold: "100%",
			Actual:    coverage(withDate, n),
			Pass:      n > 0 && withDate == n,
		},
		{
			Name:      "Tokens with baseline",
			Threshold: "100%",
			Actual:    coverage(knownToken, n),
			Pass:      n > 0 && knownToken == n,
		},
	}

	allPassed := true
	for _, c := range checks {
		if !c.Pass {
			allPassed = false
			break
		}
	}

	return DataQualitySection{Checks: checks, AllChecksPassed: allPassed}
}

func coverage(count, total int) string {
	if total == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d (%.1f%%)", count, total, float64(count)/float64(total)*100)
}
