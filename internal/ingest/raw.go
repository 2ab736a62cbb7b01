package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/idhash"
)

// Raw export columns.
const (
	ColBlockTimestamp = "block_timestamp"
	ColTokenAddress   = "token_address"
	ColFromAddress    = "from_address"
	ColTokenAmount    = "token_amount"
	ColDecimals       = "decimals"
)

// DefaultTokenContracts maps known stablecoin contracts and mints to symbols.
// EVM keys are lowercase.
var DefaultTokenContracts = map[string]string{
	"0xdac17f958d2ee523a2206206994597c13d831ec7":   domain.TokenUSDT,
	"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48":   domain.TokenUSDC,
	"0x6b175474e89094c44da98b954eedeac495271d0f":   domain.TokenDAI,
	"0x4c9edd5852cd905f086c759e8383e09bff1e68b3":   domain.TokenUSDe,
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": domain.TokenUSDC,
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": domain.TokenUSDT,
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05.999999 MST",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	time.RFC3339Nano,
}

// AnonymizeMode selects how raw addresses become wallet ids.
type AnonymizeMode string

const (
	// AnonymizeSequential labels wallets "Wallet N" in first-seen order.
	AnonymizeSequential AnonymizeMode = "sequential"
	// AnonymizeHashed derives ids from a salted address hash.
	AnonymizeHashed AnonymizeMode = "hashed"
)

// ConvertConfig configures raw export conversion.
type ConvertConfig struct {
	Source         string
	Mode           AnonymizeMode
	Salt           string
	TokenContracts map[string]string // nil uses DefaultTokenContracts
}

// ConvertStats summarizes a conversion.
type ConvertStats struct {
	Rows          int
	Wallets       int
	UnknownTokens int
}

// ConvertRaw converts a raw transfer export into anonymized transactions.
// Hour is the UTC hour of the block timestamp plus one. Amounts are scaled
// by the decimals column when present.
func ConvertRaw(r io.Reader, cfg ConvertConfig) ([]domain.Transaction, ConvertStats, error) {
	var stats ConvertStats

	if cfg.Mode == "" {
		cfg.Mode = AnonymizeSequential
	}
	if cfg.Mode != AnonymizeSequential && cfg.Mode != AnonymizeHashed {
		return nil, stats, fmt.Errorf("unknown anonymize mode %q", cfg.Mode)
	}
	contracts := cfg.TokenContracts
	if contracts == nil {
		contracts = DefaultTokenContracts
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("%w: empty input", ErrMissingColumn)
		}
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	cols := make(columns, len(head))
	for i, name := range head {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	tsIdx := cols.index(ColBlockTimestamp)
	tokenIdx := cols.index(ColTokenAddress)
	fromIdx := cols.index(ColFromAddress)
	amountIdx := cols.index(ColTokenAmount)
	decimalsIdx := cols.index(ColDecimals)
	sanctionedIdx := cols.index(ColSanctioned, colLegacySanctioned)

	for name, idx := range map[string]int{
		ColBlockTimestamp: tsIdx,
		ColTokenAddress:   tokenIdx,
		ColFromAddress:    fromIdx,
		ColTokenAmount:    amountIdx,
	} {
		if idx < 0 {
			return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	labels := idhash.NewSequentialWallets()
	txs := make([]domain.Transaction, 0)

	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read row %d: %w", row, err)
		}

		ts, err := parseTimestamp(record[tsIdx])
		if err != nil {
			return nil, stats, fmt.Errorf("row %d: %w", row, err)
		}

		from, err := NormalizeAddress(record[fromIdx])
		if err != nil {
			return nil, stats, fmt.Errorf("row %d: from_address: %w", row, err)
		}

		decimals := ""
		if decimalsIdx >= 0 {
			decimals = record[decimalsIdx]
		}
		volume, err := scaleAmount(record[amountIdx], decimals)
		if err != nil {
			return nil, stats, fmt.Errorf("row %d: %w", row, err)
		}

		token := lookupToken(contracts, record[tokenIdx])
		if token == domain.UnknownToken {
			stats.UnknownTokens++
		}

		sanctioned := false
		if sanctionedIdx >= 0 {
			if sanctioned, err = ParseFlag(record[sanctionedIdx]); err != nil {
				return nil, stats, fmt.Errorf("row %d: %w", row, err)
			}
		}

		var wallet string
		if cfg.Mode == AnonymizeHashed {
			wallet = idhash.AnonymizeWallet(from.Value, cfg.Salt)
		} else {
			wallet = labels.Label(from.Value)
		}

		hour := ts.Hour() + domain.MinHour
		txs = append(txs, domain.Transaction{
			TxID:       idhash.ComputeTransactionID(cfg.Source, row),
			Date:       truncateDay(ts),
			Hour:       &hour,
			Token:      token,
			WalletID:   wallet,
			VolumeUSD:  volume,
			Sanctioned: sanctioned,
		})
	}

	stats.Rows = len(txs)
	if cfg.Mode == AnonymizeHashed {
		seen := make(map[string]struct{}, len(txs))
		for _, tx := range txs {
			seen[tx.WalletID] = struct{}{}
		}
		stats.Wallets = len(seen)
	} else {
		stats.Wallets = labels.Len()
	}

	return txs, stats, nil
}

func lookupToken(contracts map[string]string, address string) string {
	address = strings.TrimSpace(address)
	if symbol, ok := contracts[strings.ToLower(address)]; ok {
		return symbol
	}
	if symbol, ok := contracts[address]; ok {
		return symbol
	}
	return domain.UnknownToken
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: block_timestamp %q", ErrInvalidField, s)
}

// scaleAmount parses amount and shifts it by decimals when given.
func scaleAmount(amount, decimals string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: token_amount %q", ErrInvalidField, amount)
	}

	decimals = strings.TrimSpace(decimals)
	if decimals != "" {
		n, err := strconv.ParseInt(decimals, 10, 32)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: decimals %q", ErrInvalidField, decimals)
		}
		d = d.Shift(-int32(n))
	}

	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative token_amount %q", ErrInvalidField, amount)
	}
	return d.InexactFloat64(), nil
}
