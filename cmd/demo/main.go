// Package main writes a reproducible synthetic transaction CSV.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/ingest"
)

func main() {
	defaults := ingest.DefaultDemoConfig()

	output := flag.String("output", "demo_transactions.csv", "Output CSV path (- for stdout)")
	days := flag.Int("days", defaults.Days, "Number of days")
	wallets := flag.Int("wallets", defaults.Wallets, "Number of wallets")
	start := flag.String("start", defaults.Start.Format(domain.DateLayout), "First day (YYYY-MM-DD)")
	seed := flag.Uint64("seed", defaults.Seed, "Random seed")
	sanctionRate := flag.Float64("sanction-rate", defaults.SanctionRate, "Share of sanctioned transfers")
	flag.Parse()

	startDay, err := time.Parse(domain.DateLayout, *start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --start: %v\n", err)
		os.Exit(1)
	}
	if *sanctionRate < 0 || *sanctionRate > 1 {
		fmt.Fprintln(os.Stderr, "Error: --sanction-rate must be within [0, 1]")
		os.Exit(1)
	}

	cfg := defaults
	cfg.Days = *days
	cfg.Wallets = *wallets
	cfg.Start = startDay
	cfg.Seed = *seed
	cfg.SanctionRate = *sanctionRate

	txs := ingest.GenerateDemo(cfg)

	out := os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	if err := ingest.WriteCSV(w, txs); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		os.Exit(1)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		os.Exit(1)
	}

	if *output != "-" {
		fmt.Printf("Wrote %d demo transactions to %s\n", len(txs), *output)
	}
}
