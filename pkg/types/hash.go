// Package types defines the ledger primitives shared by the wallet engine
// and the indexer adapter.
package types

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// HashSize is the length of a txid or token id in bytes.
const HashSize = chainhash.HashSize

// TokenID identifies an ALP token. It is the txid of the genesis transaction,
// held in internal (little-endian) byte order like any other chainhash.
type TokenID = chainhash.Hash

// ParseHash converts a 64-character hex string in display (big-endian) order
// to a hash. Shorter strings are rejected rather than zero-padded.
func ParseHash(s string) (chainhash.Hash, error) {
	if len(s) != 2*HashSize {
		return chainhash.Hash{}, fmt.Errorf("hash must be %d hex characters, got %d", 2*HashSize, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return chainhash.Hash{}, fmt.Errorf("invalid hash hex: %w", err)
	}
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("invalid hash: %w", err)
	}
	return *h, nil
}

// MustParseHash is ParseHash for constants and tests. It panics on error.
func MustParseHash(s string) chainhash.Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}
