package reporting

import (
	"os"
	"path/filepath"
)

// Output file names.
const (
	ReportFile             = "REPORT.md"
	ScoredTransactionsFile = "scored_transactions.csv"
	WalletSummaryFile      = "wallet_summary.csv"
	TokenAveragesFile      = "token_averages.csv"
)

// WriteFiles renders the report and its CSV tables into dir, creating it
// if needed. Returns the written paths in a fixed order.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	outputs := []struct {
		name    string
		content string
	}{
		{ReportFile, RenderMarkdown(r)},
		{ScoredTransactionsFile, RenderScoredTransactionsCSV(r.Scored)},
		{WalletSummaryFile, RenderWalletSummaryCSV(r.Wallets)},
		{TokenAveragesFile, RenderTokenAveragesCSV(r.Dashboard.TokenAverages)},
	}

	files := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(dir, out.name)
		if err := os.WriteFile(path, []byte(out.content), 0644); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}
