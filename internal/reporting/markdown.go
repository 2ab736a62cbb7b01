package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/metrics"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	d := r.Dashboard
	kf := d.KeyFigures

	// Header
	sb.WriteString("# Stablecoin Public Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	}
	sb.WriteString(fmt.Sprintf("Filter: %s\n\n", describeFilter(r.Filter)))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Transactions | %d |\n", r.DataSummary.TotalTransactions))
	sb.WriteString(fmt.Sprintf("| Wallets | %d |\n", r.DataSummary.TotalWallets))
	sb.WriteString(fmt.Sprintf("| Tokens | %s |\n", strings.Join(r.DataSummary.Tokens, ", ")))
	sb.WriteString(fmt.Sprintf("| Date Range | %s |\n", describeRange(r.DataSummary.DateRangeStart, r.DataSummary.DateRangeEnd)))
	sb.WriteString("\n")

	// Key Figures
	sb.WriteString("## Key Figures\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Volume (USD) | %.2f |\n", kf.TotalVolume))
	sb.WriteString(fmt.Sprintf("| Average Risk | %.2f |\n", kf.AverageRisk))
	sb.WriteString(fmt.Sprintf("| Median Risk | %.2f |\n", kf.MedianRisk))
	sb.WriteString(fmt.Sprintf("| P90 Risk | %.2f |\n", kf.P90Risk))
	sb.WriteString(fmt.Sprintf("| Max Risk | %.2f |\n", kf.MaxRisk))
	sb.WriteString(fmt.Sprintf("| Sanctioned Volume (USD) | %.2f |\n", kf.SanctionedVolume))
	sb.WriteString(fmt.Sprintf("| Sanctioned Share | %.2f%% |\n", kf.SanctionedSharePct))
	sb.WriteString(fmt.Sprintf("| Flagged Wallets | %d |\n", kf.FlaggedWallets))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	sb.WriteString("| Check | Threshold | Actual | Status |\n")
	sb.WriteString("|-------|-----------|--------|--------|\n")
	for _, check := range r.DataQuality.Checks {
		status := "FAIL"
		if check.Pass {
			status = "PASS"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			check.Name, check.Threshold, check.Actual, status))
	}
	sb.WriteString("\n")
	if r.DataQuality.AllChecksPassed {
		sb.WriteString("**All checks passed.**\n\n")
	} else {
		sb.WriteString("**Some checks failed.** Affected components fall back to their documented defaults.\n\n")
	}

	// Methodology
	writeMethodology(&sb, r)

	// Wallet rankings
	writeWalletTable(&sb, "Top Wallets by Average Risk", d.TopByAverageRisk)
	writeWalletTable(&sb, "Top Sanctions-Exposed Wallets", d.TopSanctionsExposed)
	writeWalletTable(&sb, "Top Wallets by Volume", d.TopWhales)

	// Token averages
	sb.WriteString("## Component Averages by Token\n\n")
	if len(d.TokenAverages) > 0 {
		sb.WriteString("| Token | Tx | Volume | Token Profile | Concentration | Velocity | Sanctions | Burst | Time | Risk |\n")
		sb.WriteString("|-------|----|--------|---------------|---------------|----------|-----------|-------|------|------|\n")
		for _, ta := range d.TokenAverages {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
				ta.Token, ta.Transactions, ta.Volume, ta.TokenProfile, ta.Concentration,
				ta.Velocity, ta.Sanctions, ta.Burst, ta.Time, ta.Risk))
		}
	} else {
		sb.WriteString("No token data available.\n")
	}
	sb.WriteString("\n")

	// Sanctions flows
	sb.WriteString("## Sanctions Flows\n\n")
	if len(d.DailyFlows) > 0 {
		sb.WriteString("| Date | Clean Volume | Sanctioned Volume |\n")
		sb.WriteString("|------|--------------|-------------------|\n")
		for _, f := range d.DailyFlows {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f |\n",
				f.Date.Format(domain.DateLayout), f.CleanVolume, f.SanctionedVolume))
		}
	} else {
		sb.WriteString("No dated transactions available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("### Sanctioned Volume by Token\n\n")
	if len(d.SanctionedByToken) > 0 {
		sb.WriteString("| Token | Sanctioned Volume |\n")
		sb.WriteString("|-------|-------------------|\n")
		for _, tv := range d.SanctionedByToken {
			sb.WriteString(fmt.Sprintf("| %s | %.2f |\n", tv.Token, tv.Volume))
		}
	} else {
		sb.WriteString("No sanctioned volume.\n")
	}
	sb.WriteString("\n")

	// Risk distribution
	sb.WriteString("## Risk Distribution\n\n")
	sb.WriteString("| Bucket | Transactions |\n")
	sb.WriteString("|--------|--------------|\n")
	for i, b := range d.RiskHistogram {
		closing := ")"
		if i == len(d.RiskHistogram)-1 {
			closing = "]"
		}
		sb.WriteString(fmt.Sprintf("| [%.0f, %.0f%s | %d |\n", b.Lower, b.Upper, closing, b.Count))
	}
	sb.WriteString("\n")

	// Reproducibility
	if rep := r.Reproducibility; rep.InputDigest != "" {
		sb.WriteString("## Reproducibility\n\n")
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Generator Version | %s |\n", rep.GeneratorVersion))
		sb.WriteString(fmt.Sprintf("| Input Digest | %s |\n", rep.InputDigest))
		sb.WriteString(fmt.Sprintf("| Policy Digest | %s |\n", rep.PolicyDigest))
		sb.WriteString(fmt.Sprintf("| Commit | %s |\n", rep.CommitHash))
		sb.WriteString(fmt.Sprintf("| Cached Scores | %t |\n", rep.CacheHit))
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeMethodology(sb *strings.Builder, r *Report) {
	w := r.Policy.Weights

	sb.WriteString("## Methodology\n\n")
	sb.WriteString("Risk is a weighted blend of component scores, each in [0, 100]:\n\n")
	sb.WriteString("| Component | Weight |\n")
	sb.WriteString("|-----------|--------|\n")
	sb.WriteString(fmt.Sprintf("| Volume | %.2f |\n", w.Volume))
	sb.WriteString(fmt.Sprintf("| Token Profile | %.2f |\n", w.TokenProfile))
	sb.WriteString(fmt.Sprintf("| Concentration | %.2f |\n", w.Concentration))
	sb.WriteString(fmt.Sprintf("| Velocity | %.2f |\n", w.Velocity))
	sb.WriteString(fmt.Sprintf("| Sanctions | %.2f |\n", w.Sanctions))
	sb.WriteString(fmt.Sprintf("| Burst | %.2f |\n", w.Burst))
	sb.WriteString(fmt.Sprintf("| Time | %.2f |\n", w.Time))
	sb.WriteString("\n")

	if r.Policy.SanctionsMultiplier {
		sb.WriteString("Sanctioned transactions are multiplied by 1 + log10(max(volume, 1)) / 2 and capped at 100.\n\n")
	} else {
		sb.WriteString("Sanctions exposure enters the blend as a linear component only.\n\n")
	}

	tokens := make([]string, 0, len(r.Policy.TokenBaselines))
	for token := range r.Policy.TokenBaselines {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	sb.WriteString("Token baselines: ")
	parts := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		parts = append(parts, fmt.Sprintf("%s %.0f", token, r.Policy.TokenBaselines[token]))
	}
	parts = append(parts, fmt.Sprintf("other %.0f", r.Policy.DefaultTokenBaseline))
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(".\n\n")
}

func writeWalletTable(sb *strings.Builder, title string, wallets []metrics.WalletSummary) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	if len(wallets) == 0 {
		sb.WriteString("No wallets available.\n\n")
		return
	}
	sb.WriteString("| Wallet | Tx | Volume | Avg Risk | Max Risk | Sanctioned Volume |\n")
	sb.WriteString("|--------|----|--------|----------|----------|-------------------|\n")
	for _, w := range wallets {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %.2f | %.2f |\n",
			w.WalletID, w.TransactionCount, w.TotalVolume, w.AverageRisk, w.MaxRisk, w.SanctionedVolume))
	}
	sb.WriteString("\n")
}

func describeFilter(f metrics.Filter) string {
	if f.IsZero() {
		return "none"
	}
	tokens := "all tokens"
	if len(f.Tokens) > 0 {
		tokens = strings.Join(f.Tokens, ", ")
	}
	return fmt.Sprintf("%s; %s", tokens, describeRange(f.From, f.To))
}

func describeRange(start, end time.Time) string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "*"
		}
		return t.Format(domain.DateLayout)
	}
	if start.IsZero() && end.IsZero() {
		return "n/a"
	}
	return fmt.Sprintf("%s to %s", format(start), format(end))
}
