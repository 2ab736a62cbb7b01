package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const transactionColumns = `tx_id, tx_date, hour, token, wallet_id, volume_usd, sanctioned`

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
// Rows are queued on one pgx.Batch inside a transaction; seq preserves their order.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	for i := range txs {
		if txs[i].TxID == "" {
			return storage.Invalidf("transaction %d has no tx_id", i)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for i := range txs {
		t := &txs[i]
		batch.Queue(query, t.TxID, nullableDate(t.Date), t.Hour, t.Token, t.WalletID, t.VolumeUSD, t.Sanctioned)
	}

	results := tx.SendBatch(ctx, batch)
	for range txs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return translateError(err, "insert transaction batch")
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves every transaction in insertion order.
func (s *TransactionStore) GetAll(ctx context.Context) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByDateRange retrieves transactions dated within [start, end] (inclusive days).
func (s *TransactionStore) GetByDateRange(ctx context.Context, start, end time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE tx_date >= $1 AND tx_date <= $2
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, truncateDay(start), truncateDay(end))
	if err != nil {
		return nil, fmt.Errorf("query transactions by date range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// Count returns the number of stored transactions.
func (s *TransactionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	result := make([]domain.Transaction, 0)

	for rows.Next() {
		var (
			t    domain.Transaction
			date *time.Time
		)
		if err := rows.Scan(&t.TxID, &date, &t.Hour, &t.Token, &t.WalletID, &t.VolumeUSD, &t.Sanctioned); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if date != nil {
			t.Date = date.UTC()
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return result, nil
}

// nullableDate maps the zero time to SQL NULL.
func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	d := truncateDay(t)
	return &d
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
