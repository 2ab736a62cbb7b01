package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTransactionID computes a deterministic tx_id using SHA256.
// Formula: SHA256(source|row_index)
// Returns hex-encoded hash (64 characters).
//
// Ledgers may legitimately contain identical rows (same wallet, day and
// amount), so the id is derived from position in the source, not content.
func ComputeTransactionID(source string, rowIndex int) string {
	data := fmt.Sprintf("%s|%d", source, rowIndex)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
