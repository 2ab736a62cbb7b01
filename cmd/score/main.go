// Package main scores a transaction table once and writes the report files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stablecoin-risk-monitor/internal/config"
	"stablecoin-risk-monitor/internal/logging"
	"stablecoin-risk-monitor/internal/metrics"
	"stablecoin-risk-monitor/internal/pipeline"
	"stablecoin-risk-monitor/internal/scoring"
	"stablecoin-risk-monitor/internal/storage/backend"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags
	input := flag.String("input", cfg.InputCSV, "Transaction CSV to score")
	useFixtures := flag.Bool("use-fixtures", false, "Score the built-in fixture table instead of a CSV")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for generated files")
	policyFile := flag.String("policy-file", cfg.PolicyFile, "JSON scoring policy (empty for default)")
	tokens := flag.String("token", "", "Comma-separated tokens to include in the report")
	from := flag.String("from", "", "First report day (YYYY-MM-DD)")
	to := flag.String("to", "", "Last report day (YYYY-MM-DD)")
	persist := flag.Bool("persist", false, "Store the run in the configured database")
	fixedClock := flag.String("fixed-time", "", "Report timestamp (RFC3339) for reproducible output")
	flag.Parse()

	if *input == "" && !*useFixtures {
		fmt.Fprintln(os.Stderr, "Error: --input is required (or use --use-fixtures)")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	filter, err := metrics.ParseFilter(splitNonEmpty(*tokens), *from, *to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	policy, err := scoring.LoadPolicyFile(*policyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading policy: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling run...\n", sig)
		cancel()
	}()

	var source pipeline.Source = pipeline.CSVSource{Path: *input}
	if *useFixtures {
		source = pipeline.StaticSource{Transactions: pipeline.FixtureTransactions(), Label: pipeline.FixtureSource}
	}

	opts := pipeline.Options{
		Source:    source,
		Policy:    policy,
		OutputDir: *outputDir,
		Filter:    filter,
		Logger:    logger,
	}

	if *persist {
		stores, err := backend.Open(ctx, backend.Options{
			PostgresDSN:      cfg.PostgresDSN,
			PostgresMaxConns: cfg.PostgresMaxConns,
			ClickhouseDSN:    cfg.ClickhouseDSN,
			UseMemory:        cfg.UseMemory,
			Migrate:          true,
		}, logging.Component(logger, "storage"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to databases: %v\n", err)
			os.Exit(1)
		}
		defer stores.Close()
		opts.Runs = stores.Runs
		opts.Scores = stores.Scores
		opts.StoreKind = stores.Kind
	}

	p, err := pipeline.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating pipeline: %v\n", err)
		os.Exit(1)
	}
	if *fixedClock != "" {
		at, err := time.Parse(time.RFC3339, *fixedClock)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --fixed-time: %v\n", err)
			os.Exit(1)
		}
		p = p.WithClock(func() time.Time { return at.UTC() })
	}

	result, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Run cancelled")
		} else {
			fmt.Fprintf(os.Stderr, "Error running pipeline: %v\n", err)
		}
		os.Exit(1)
	}

	kf := result.Report.Dashboard.KeyFigures
	fmt.Printf("Scored %d transactions across %d wallets (run %s)\n",
		result.Run.TransactionCount, result.Run.WalletCount, result.Run.RunID)
	fmt.Printf("  Average risk: %.2f  P90: %.2f  Max: %.2f\n", kf.AverageRisk, kf.P90Risk, kf.MaxRisk)
	fmt.Printf("  Sanctioned share: %.2f%%  Flagged wallets: %d\n", kf.SanctionedSharePct, kf.FlaggedWallets)
	if len(result.Files) > 0 {
		fmt.Println("Generated files:")
		for _, f := range result.Files {
			fmt.Printf("  - %s\n", f)
		}
	}
}

func splitNonEmpty(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return []string{s}
}
