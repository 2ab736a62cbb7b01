package idhash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"stablecoin-risk-monitor/internal/domain"
)

// TableDigest hashes the scoring-relevant content of a transaction table.
// Row order is part of the digest because scored output preserves input order.
// TxID is excluded: two loads of the same file under different source names
// digest equally.
func TableDigest(txs []domain.Transaction) string {
	h := sha256.New()
	var buf [8]byte

	writeString := func(s string) {
		binary.BigEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}
	writeUint := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeUint(uint64(len(txs)))
	for i := range txs {
		tx := &txs[i]
		writeString(tx.Date.UTC().Format(domain.DateLayout))
		if tx.Hour != nil {
			writeUint(uint64(*tx.Hour))
		} else {
			writeUint(math.MaxUint64)
		}
		writeString(tx.Token)
		writeString(tx.WalletID)
		writeUint(math.Float64bits(tx.VolumeUSD))
		if tx.Sanctioned {
			writeUint(1)
		} else {
			writeUint(0)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
