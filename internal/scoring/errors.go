package scoring

import "errors"

// Validation errors. Row-level errors are wrapped with the offending row index.
var (
	// ErrInvalidHour is returned when an hour is outside 1..24.
	ErrInvalidHour = errors.New("hour out of range 1..24")

	// ErrInvalidVolume is returned for negative, NaN or infinite volumes.
	ErrInvalidVolume = errors.New("volume must be a finite non-negative number")

	// ErrMissingWallet is returned when a transaction has no wallet id.
	ErrMissingWallet = errors.New("wallet id is required")

	// ErrInvalidPolicy is returned when weights or baselines are out of bounds.
	ErrInvalidPolicy = errors.New("invalid scoring policy")

	// ErrWalletNotAggregated signals a transaction whose wallet is missing from
	// the wallet aggregate. It can only be caused by a bug in this package.
	ErrWalletNotAggregated = errors.New("wallet missing from aggregate")
)
