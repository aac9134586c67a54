// Package crypto provides the hashing and signing primitives used by the wallet.
package crypto

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // HASH160 is fixed by the ledger.
)

// Hash160Size is the length of a public-key hash in bytes.
const Hash160Size = ripemd160.Size

// Hash160 computes RIPEMD160(SHA256(data)).
func Hash160(data []byte) [Hash160Size]byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sum[:])
	var out [Hash160Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DoubleHash computes SHA256(SHA256(data)).
func DoubleHash(data []byte) chainhash.Hash {
	return chainhash.DoubleHashH(data)
}

// PubKeyHash returns the HASH160 of a compressed public key.
func PubKeyHash(pubKey []byte) [Hash160Size]byte {
	return Hash160(pubKey)
}
