// Package ingest loads transaction tables from CSV, converts raw chain
// exports into the anonymized table format and generates demo data.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/idhash"
)

// Column names of the table format.
const (
	ColDate       = "date"
	ColHour       = "hour"
	ColToken      = "token"
	ColWallet     = "wallet_id"
	ColVolume     = "volume_usd"
	ColSanctioned = "sanctioned"

	// Legacy names written by older exports.
	colLegacyVolume     = "tx_volume_usd"
	colLegacySanctioned = "sanctions_flag"
)

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
}

// columns maps a header name to its index.
type columns map[string]int

func (c columns) index(names ...string) int {
	for _, name := range names {
		if i, ok := c[name]; ok {
			return i
		}
	}
	return -1
}

// ReadCSV reads a transaction table.
// Required columns: token, wallet_id and volume_usd (or tx_volume_usd).
// Optional columns: date, hour, sanctioned (or sanctions_flag).
// Each row gets a TxID derived from source and its position.
func ReadCSV(r io.Reader, source string) ([]domain.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(columns, len(head))
	for i, name := range head {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	tokenIdx := cols.index(ColToken)
	walletIdx := cols.index(ColWallet)
	volumeIdx := cols.index(ColVolume, colLegacyVolume)
	dateIdx := cols.index(ColDate)
	hourIdx := cols.index(ColHour)
	sanctionedIdx := cols.index(ColSanctioned, colLegacySanctioned)

	switch {
	case tokenIdx < 0:
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColToken)
	case walletIdx < 0:
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColWallet)
	case volumeIdx < 0:
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColVolume)
	}

	txs := make([]domain.Transaction, 0)
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		tx := domain.Transaction{
			TxID:     idhash.ComputeTransactionID(source, row),
			Token:    strings.TrimSpace(record[tokenIdx]),
			WalletID: strings.TrimSpace(record[walletIdx]),
		}

		tx.VolumeUSD, err = strconv.ParseFloat(strings.TrimSpace(record[volumeIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: volume %q", row, ErrInvalidField, record[volumeIdx])
		}

		if dateIdx >= 0 {
			if tx.Date, err = parseDate(record[dateIdx]); err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
		}
		if hourIdx >= 0 {
			if tx.Hour, err = parseHour(record[hourIdx]); err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
		}
		if sanctionedIdx >= 0 {
			if tx.Sanctioned, err = ParseFlag(record[sanctionedIdx]); err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
		}

		txs = append(txs, tx)
	}

	return txs, nil
}

// WriteCSV writes transactions in the table format ReadCSV accepts.
// An absent hour is written as an empty cell.
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{ColDate, ColHour, ColToken, ColWallet, ColVolume, ColSanctioned}); err != nil {
		return err
	}

	for _, tx := range txs {
		date := ""
		if !tx.Date.IsZero() {
			date = tx.Date.UTC().Format(domain.DateLayout)
		}
		hour := ""
		if tx.Hour != nil {
			hour = strconv.Itoa(*tx.Hour)
		}
		sanctioned := "0"
		if tx.Sanctioned {
			sanctioned = "1"
		}

		record := []string{
			date,
			hour,
			tx.Token,
			tx.WalletID,
			strconv.FormatFloat(tx.VolumeUSD, 'f', -1, 64),
			sanctioned,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidField, s)
}

// parseHour accepts integers and integral floats ("7.0" from float-typed
// exports) in 1..24.
func parseHour(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < domain.MinHour || f > domain.MaxHour {
		return nil, fmt.Errorf("%w: hour %q", ErrInvalidField, s)
	}
	h := int(f)
	return &h, nil
}

// ParseFlag reads a sanctions flag: 0/1, true/false, yes/no. Empty is false.
func ParseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "0.0", "false", "no", "n", "f":
		return false, nil
	case "1", "1.0", "true", "yes", "y", "t":
		return true, nil
	}
	return false, fmt.Errorf("%w: sanctioned %q", ErrInvalidField, s)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
