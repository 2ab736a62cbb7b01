package clickhouse

import (
	"context"
	"fmt"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/storage"
)

// RiskScoreStore implements storage.RiskScoreStore using ClickHouse.
type RiskScoreStore struct {
	conn *Conn
}

// NewRiskScoreStore creates a new RiskScoreStore.
func NewRiskScoreStore(conn *Conn) *RiskScoreStore {
	return &RiskScoreStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RiskScoreStore = (*RiskScoreStore)(nil)

const riskScoreColumns = `
	tx_id, tx_date, hour, token, wallet_id, volume_usd, sanctioned,
	volume_score, token_profile_score, concentration_score, velocity_score,
	sanctions_score, burst_score, time_score, risk_score`

// InsertBulk stores the scored table of a run. Fails entire batch if the run
// already has rows or a tx_id repeats within the batch.
func (s *RiskScoreStore) InsertBulk(ctx context.Context, runID string, scored []domain.ScoredTransaction) error {
	if runID == "" {
		return storage.Invalidf("scores without run_id")
	}
	if len(scored) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(scored))
	for i := range scored {
		id := scored[i].TxID
		if id == "" {
			return storage.Invalidf("scored row %d has no tx_id", i)
		}
		if _, exists := seen[id]; exists {
			return storage.Duplicatef("tx_id %s repeated in run %s", id, runID)
		}
		seen[id] = struct{}{}
	}

	// ReplacingMergeTree would replace, but runs are append-only
	exists, err := s.runExists(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.Duplicatef("run %s already has scores", runID)
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO risk_scores (run_id, position, `+riskScoreColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range scored {
		st := &scored[i]
		sc := st.Scores
		err = batch.Append(
			runID, uint32(i),
			st.TxID, nullableDate(st.Date), nullableHour(st.Hour), st.Token, st.WalletID, st.VolumeUSD, st.Sanctioned,
			sc.Volume, sc.TokenProfile, sc.Concentration, sc.Velocity,
			sc.Sanctions, sc.Burst, sc.Time, sc.Risk,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves the scored table of a run in row order.
func (s *RiskScoreStore) GetByRun(ctx context.Context, runID string) ([]domain.ScoredTransaction, error) {
	query := `
		SELECT ` + riskScoreColumns + `
		FROM risk_scores FINAL
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanScored(rows)
}

// GetByWallet retrieves one wallet's scored transactions within a run.
func (s *RiskScoreStore) GetByWallet(ctx context.Context, runID, walletID string) ([]domain.ScoredTransaction, error) {
	query := `
		SELECT ` + riskScoreColumns + `
		FROM risk_scores FINAL
		WHERE run_id = ? AND wallet_id = ?
		ORDER BY position ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, walletID)
	if err != nil {
		return nil, fmt.Errorf("query by wallet: %w", err)
	}
	defer rows.Close()

	return scanScored(rows)
}

func (s *RiskScoreStore) runExists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM risk_scores WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanScored(rows chRows) ([]domain.ScoredTransaction, error) {
	result := make([]domain.ScoredTransaction, 0)

	for rows.Next() {
		var (
			st   domain.ScoredTransaction
			date *time.Time
			hour *uint8
		)
		sc := &st.Scores
		err := rows.Scan(
			&st.TxID, &date, &hour, &st.Token, &st.WalletID, &st.VolumeUSD, &st.Sanctioned,
			&sc.Volume, &sc.TokenProfile, &sc.Concentration, &sc.Velocity,
			&sc.Sanctions, &sc.Burst, &sc.Time, &sc.Risk,
		)
		if err != nil {
			return nil, fmt.Errorf("scan risk score row: %w", err)
		}
		if date != nil {
			st.Date = date.UTC()
		}
		if hour != nil {
			h := int(*hour)
			st.Hour = &h
		}
		result = append(result, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate risk score rows: %w", err)
	}

	return result, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	d := t.UTC()
	return &d
}

// nullableHour narrows a validated 1..24 hour to the column type.
func nullableHour(h *int) *uint8 {
	if h == nil {
		return nil
	}
	v := uint8(*h)
	return &v
}
