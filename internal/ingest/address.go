package ingest

import (
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

// AddressKind classifies a normalized address.
type AddressKind int

const (
	AddressEVM AddressKind = iota
	// AddressSolanaWallet is a 32-byte key on the ed25519 curve.
	AddressSolanaWallet
	// AddressSolanaPDA is a 32-byte program-derived address (off curve).
	AddressSolanaPDA
)

func (k AddressKind) String() string {
	switch k {
	case AddressEVM:
		return "evm"
	case AddressSolanaWallet:
		return "solana_wallet"
	case AddressSolanaPDA:
		return "solana_pda"
	default:
		return "unknown"
	}
}

// Address is a normalized chain address.
type Address struct {
	Value string
	Kind  AddressKind
}

// NormalizeAddress validates addr and returns its canonical form.
// EVM addresses are lowercased hex regardless of checksum casing.
// Solana addresses keep their base58 form.
func NormalizeAddress(addr string) (Address, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	if common.IsHexAddress(addr) {
		return Address{
			Value: strings.ToLower(common.HexToAddress(addr).Hex()),
			Kind:  AddressEVM,
		}, nil
	}

	decoded, err := base58.Decode(addr)
	if err != nil || len(decoded) != 32 {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}

	kind := AddressSolanaPDA
	if isOnCurve(decoded) {
		kind = AddressSolanaWallet
	}
	return Address{Value: base58.Encode(decoded), Kind: kind}, nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
