// Package main converts a raw stablecoin transfer export into the
// anonymized CSV format read by the scorer.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"stablecoin-risk-monitor/internal/ingest"
)

func main() {
	input := flag.String("input", "", "Raw export CSV (block_timestamp, token_address, from_address, token_amount)")
	output := flag.String("output", "transactions.csv", "Output CSV path")
	mode := flag.String("anonymize", string(ingest.AnonymizeSequential), "Wallet ids: sequential or hashed")
	salt := flag.String("salt", os.Getenv("WALLET_SALT"), "Salt for hashed anonymization")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: --input is required")
		os.Exit(1)
	}
	if ingest.AnonymizeMode(*mode) == ingest.AnonymizeHashed && *salt == "" {
		fmt.Fprintln(os.Stderr, "Error: --salt (or WALLET_SALT) is required for hashed anonymization")
		os.Exit(1)
	}

	in, err := os.Open(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening input: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	txs, stats, err := ingest.ConvertRaw(bufio.NewReader(in), ingest.ConvertConfig{
		Source: filepath.Base(*input),
		Mode:   ingest.AnonymizeMode(*mode),
		Salt:   *salt,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error converting: %v\n", err)
		os.Exit(1)
	}

	out, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if err := ingest.WriteCSV(w, txs); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		os.Exit(1)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converted %d rows (%d wallets, %d unknown-token rows) to %s\n",
		stats.Rows, stats.Wallets, stats.UnknownTokens, *output)
}
