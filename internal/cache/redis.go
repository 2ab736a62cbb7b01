package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stablecoin-risk-monitor/internal/domain"
)

const (
	// Bump the version segment when the payload layout changes.
	redisKeyPrefix  = "stablecoin-risk:scores:v1:"
	defaultRedisTTL = time.Hour
)

// RedisConfig configures RedisMemo.
type RedisConfig struct {
	Addr string
	TTL  time.Duration
}

// RedisMemo stores scored tables in Redis as JSON with a TTL.
type RedisMemo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMemo connects to Redis and verifies the connection.
func NewRedisMemo(ctx context.Context, cfg RedisConfig) (*RedisMemo, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisMemoWithClient(client, cfg.TTL), nil
}

// NewRedisMemoWithClient wraps an existing client.
func NewRedisMemoWithClient(client *redis.Client, ttl time.Duration) *RedisMemo {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisMemo{client: client, ttl: ttl}
}

// Get loads a table. A payload that no longer decodes counts as a miss.
func (m *RedisMemo) Get(ctx context.Context, key string) ([]domain.ScoredTransaction, bool, error) {
	data, err := m.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var rows []cachedRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, nil
	}
	return fromCachedRows(rows), true, nil
}

// Set stores a table with the configured TTL.
func (m *RedisMemo) Set(ctx context.Context, key string, scored []domain.ScoredTransaction) error {
	payload, err := json.Marshal(toCachedRows(scored))
	if err != nil {
		return fmt.Errorf("encode scored table: %w", err)
	}
	if err := m.client.Set(ctx, redisKeyPrefix+key, payload, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (m *RedisMemo) Close() error {
	return m.client.Close()
}

var _ Memo = (*RedisMemo)(nil)

// cachedRow is the JSON layout of one cached scored transaction.
type cachedRow struct {
	TxID          string  `json:"tx_id"`
	Date          string  `json:"date,omitempty"`
	Hour          *int    `json:"hour,omitempty"`
	Token         string  `json:"token"`
	WalletID      string  `json:"wallet_id"`
	VolumeUSD     float64 `json:"volume_usd"`
	Sanctioned    bool    `json:"sanctioned"`
	Volume        float64 `json:"volume_score"`
	TokenProfile  float64 `json:"token_profile_score"`
	Concentration float64 `json:"concentration_score"`
	Velocity      float64 `json:"velocity_score"`
	Sanctions     float64 `json:"sanctions_score"`
	Burst         float64 `json:"burst_score"`
	Time          float64 `json:"time_score"`
	Risk          float64 `json:"risk_score"`
}

func toCachedRows(scored []domain.ScoredTransaction) []cachedRow {
	rows := make([]cachedRow, len(scored))
	for i := range scored {
		st := &scored[i]
		date := ""
		if !st.Date.IsZero() {
			date = st.Date.Format(domain.DateLayout)
		}
		rows[i] = cachedRow{
			TxID:          st.TxID,
			Date:          date,
			Hour:          st.Hour,
			Token:         st.Token,
			WalletID:      st.WalletID,
			VolumeUSD:     st.VolumeUSD,
			Sanctioned:    st.Sanctioned,
			Volume:        st.Scores.Volume,
			TokenProfile:  st.Scores.TokenProfile,
			Concentration: st.Scores.Concentration,
			Velocity:      st.Scores.Velocity,
			Sanctions:     st.Scores.Sanctions,
			Burst:         st.Scores.Burst,
			Time:          st.Scores.Time,
			Risk:          st.Scores.Risk,
		}
	}
	return rows
}

func fromCachedRows(rows []cachedRow) []domain.ScoredTransaction {
	scored := make([]domain.ScoredTransaction, len(rows))
	for i, r := range rows {
		var date time.Time
		if r.Date != "" {
			// Written by toCachedRows; a parse failure leaves the row undated.
			date, _ = time.Parse(domain.DateLayout, r.Date)
		}
		scored[i] = domain.ScoredTransaction{
			Transaction: domain.Transaction{
				TxID:       r.TxID,
				Date:       date,
				Hour:       r.Hour,
				Token:      r.Token,
				WalletID:   r.WalletID,
				VolumeUSD:  r.VolumeUSD,
				Sanctioned: r.Sanctioned,
			},
			Scores: domain.ComponentScores{
				Volume:        r.Volume,
				TokenProfile:  r.TokenProfile,
				Concentration: r.Concentration,
				Velocity:      r.Velocity,
				Sanctions:     r.Sanctions,
				Burst:         r.Burst,
				Time:          r.Time,
				Risk:          r.Risk,
			},
		}
	}
	return scored
}
