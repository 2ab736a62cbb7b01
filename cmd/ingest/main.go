// Package main loads transactions into the PostgreSQL transaction store.
//
// Modes:
//   - csv:      a scoring-ready CSV (token, wallet_id, volume_usd, ...)
//   - raw:      a raw transfer export, converted and anonymized on the way in
//   - demo:     a reproducible synthetic ledger
//   - fixtures: the small built-in table used by tests
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"stablecoin-risk-monitor/internal/config"
	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/ingest"
	"stablecoin-risk-monitor/internal/logging"
	"stablecoin-risk-monitor/internal/observability"
	"stablecoin-risk-monitor/internal/pipeline"
	"stablecoin-risk-monitor/internal/storage/backend"
)

// batchSize bounds a single InsertBulk call.
const batchSize = 5000

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags
	mode := flag.String("mode", "csv", "Ingestion mode: csv, raw, demo or fixtures")
	input := flag.String("input", "", "Input file for csv and raw modes")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	anonymize := flag.String("anonymize", string(ingest.AnonymizeSequential), "Raw mode wallet ids: sequential or hashed")
	salt := flag.String("salt", os.Getenv("WALLET_SALT"), "Salt for hashed anonymization")
	days := flag.Int("days", ingest.DefaultDemoConfig().Days, "Demo mode: number of days")
	wallets := flag.Int("wallets", ingest.DefaultDemoConfig().Wallets, "Demo mode: number of wallets")
	seed := flag.Uint64("seed", ingest.DefaultDemoConfig().Seed, "Demo mode: random seed")
	flag.Parse()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	log := logging.Component(logger, "ingest")

	if *postgresDSN == "" {
		log.Fatal("--postgres-dsn is required; in-memory ingestion would be discarded on exit")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("cancelling ingestion")
		cancel()
	}()

	txs, err := loadTransactions(*mode, *input, *anonymize, *salt, *days, *wallets, *seed, log)
	if err != nil {
		log.WithError(err).Fatal("load input")
	}

	stores, err := backend.Open(ctx, backend.Options{PostgresDSN: *postgresDSN, Migrate: true}, log)
	if err != nil {
		log.WithError(err).Fatal("connect to postgres")
	}
	defer stores.Close()

	before, err := stores.Transactions.Count(ctx)
	if err != nil {
		log.WithError(err).Fatal("count transactions")
	}

	for start := 0; start < len(txs); start += batchSize {
		end := min(start+batchSize, len(txs))
		began := time.Now()
		err := stores.Transactions.InsertBulk(ctx, txs[start:end])
		observability.RecordDBQuery(stores.Kind, "insert_transactions", time.Since(began).Seconds(), err)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{"from": start, "to": end}).Fatal("insert batch")
		}
		log.WithFields(logrus.Fields{"inserted": end, "total": len(txs)}).Debug("batch stored")
	}

	after, err := stores.Transactions.Count(ctx)
	if err != nil {
		log.WithError(err).Fatal("count transactions")
	}
	log.WithFields(logrus.Fields{
		"mode":     *mode,
		"inserted": len(txs),
		"before":   before,
		"after":    after,
	}).Info("ingestion complete")
}

func loadTransactions(mode, input, anonymize, salt string, days, wallets int, seed uint64, log logrus.FieldLogger) ([]domain.Transaction, error) {
	switch mode {
	case "csv":
		f, err := openInput(input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ingest.ReadCSV(f, filepath.Base(input))

	case "raw":
		f, err := openInput(input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		txs, stats, err := ingest.ConvertRaw(f, ingest.ConvertConfig{
			Source: filepath.Base(input),
			Mode:   ingest.AnonymizeMode(anonymize),
			Salt:   salt,
		})
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"rows":           stats.Rows,
			"wallets":        stats.Wallets,
			"unknown_tokens": stats.UnknownTokens,
		}).Info("converted raw export")
		return txs, nil

	case "demo":
		cfg := ingest.DefaultDemoConfig()
		cfg.Days = days
		cfg.Wallets = wallets
		cfg.Seed = seed
		return ingest.GenerateDemo(cfg), nil

	case "fixtures":
		return pipeline.FixtureTransactions(), nil

	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func openInput(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}
	return os.Open(path)
}
