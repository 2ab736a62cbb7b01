package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the memory, Postgres and ClickHouse backends.
// Runs and their scored rows are written once and never updated.
var (
	ErrNotFound     = errors.New("storage: record not found")
	ErrDuplicateKey = errors.New("storage: record already written")
	ErrInvalidInput = errors.New("storage: invalid record")
)

// Invalidf wraps ErrInvalidInput with the reason the record was rejected.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Duplicatef wraps ErrDuplicateKey with the key that collided.
func Duplicatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDuplicateKey, fmt.Sprintf(format, args...))
}
