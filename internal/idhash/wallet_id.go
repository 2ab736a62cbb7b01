package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// AnonymizeWallet derives an opaque wallet id from an address and a salt.
// Formula: "W" + base58(SHA256(salt|address)[:16])
// The salt keeps ids from being reversed by hashing known addresses.
func AnonymizeWallet(address, salt string) string {
	hash := sha256.Sum256([]byte(salt + "|" + address))
	return "W" + base58.Encode(hash[:16])
}

// SequentialWallets assigns "Wallet N" labels in first-seen order.
// The same address always maps to the same label within one instance.
type SequentialWallets struct {
	labels map[string]string
}

// NewSequentialWallets creates an empty sequential labeler.
func NewSequentialWallets() *SequentialWallets {
	return &SequentialWallets{labels: make(map[string]string)}
}

// Label returns the label for address, assigning the next number if new.
func (s *SequentialWallets) Label(address string) string {
	if label, ok := s.labels[address]; ok {
		return label
	}
	label := fmt.Sprintf("Wallet %d", len(s.labels)+1)
	s.labels[address] = label
	return label
}

// Len returns how many distinct addresses have been labelled.
func (s *SequentialWallets) Len() int {
	return len(s.labels)
}
