package domain

import "time"

// Transaction is one stablecoin transfer in the monitored ledger.
// Hour and Sanctioned are optional in source data: a nil Hour means the
// source carried no hour column, and a missing sanctions column loads as false.
type Transaction struct {
	TxID       string    // stable row identifier assigned by the loader
	Date       time.Time // calendar day (UTC, truncated)
	Hour       *int      // 1..24, nil when unknown
	Token      string    // token symbol, e.g. USDT
	WalletID   string    // anonymized wallet identifier
	VolumeUSD  float64   // transfer size in USD, >= 0
	Sanctioned bool      // linked to a sanctioned entity by an upstream matcher
}

// HasHour reports whether the transaction carries an hour bucket.
func (t *Transaction) HasHour() bool {
	return t.Hour != nil
}

// Hour range. Hours are 1-based: 1 covers 00:00-00:59 UTC, 24 covers 23:00-23:59.
const (
	MinHour      = 1
	MaxHour      = 24
	HoursPerDay  = MaxHour - MinHour + 1
	DateLayout   = "2006-01-02"
	UnknownToken = "UNKNOWN"
)

// Token symbols recognised by the default scoring policy.
const (
	TokenUSDT = "USDT"
	TokenUSDC = "USDC"
	TokenDAI  = "DAI"
	TokenUSDe = "USDe"
)
