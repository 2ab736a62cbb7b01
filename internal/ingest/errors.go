package ingest

import "errors"

var (
	// ErrMissingColumn is returned when a required header column is absent.
	ErrMissingColumn = errors.New("missing required column")

	// ErrInvalidField is returned when a cell cannot be parsed.
	ErrInvalidField = errors.New("invalid field")

	// ErrInvalidAddress is returned when an address is neither EVM hex nor a Solana key.
	ErrInvalidAddress = errors.New("invalid address")
)
