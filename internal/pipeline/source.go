package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/ingest"
	"stablecoin-risk-monitor/internal/storage"
)

// Source provides the transaction table for one run.
type Source interface {
	Load(ctx context.Context) ([]domain.Transaction, error)
	Name() string
}

// CSVSource reads a table file on every run, so edits are picked up
// by the next scheduled run.
type CSVSource struct {
	Path string
}

func (s CSVSource) Load(_ context.Context) ([]domain.Transaction, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	txs, err := ingest.ReadCSV(f, filepath.Base(s.Path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return txs, nil
}

func (s CSVSource) Name() string {
	return "csv:" + s.Path
}

// StoreSource reads from a TransactionStore. When both From and To are
// set, only transactions dated within [From, To] are loaded.
type StoreSource struct {
	Store storage.TransactionStore
	From  time.Time
	To    time.Time
}

func (s StoreSource) Load(ctx context.Context) ([]domain.Transaction, error) {
	if !s.From.IsZero() && !s.To.IsZero() {
		return s.Store.GetByDateRange(ctx, s.From, s.To)
	}
	return s.Store.GetAll(ctx)
}

func (s StoreSource) Name() string {
	return "store"
}

// StaticSource serves a fixed in-memory table.
type StaticSource struct {
	Transactions []domain.Transaction
	Label        string
}

func (s StaticSource) Load(_ context.Context) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, len(s.Transactions))
	copy(out, s.Transactions)
	return out, nil
}

func (s StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}
