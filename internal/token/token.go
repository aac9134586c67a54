// Package token keeps the wallet's local view of ALP tokens: immutable
// genesis metadata cached on disk, and the conservation checks run on a
// token transaction before it is signed.
package token

import "github.com/Klingon-tech/xecwallet/pkg/types"

// Metadata is the cached genesis information of a token together with its
// genesis supply. Both are fixed once the genesis transaction exists.
type Metadata struct {
	types.TokenMeta
	// GenesisSupply is the number of atoms created by the genesis outputs.
	// Nil until the genesis transaction has been read.
	GenesisSupply *uint64 `json:"genesisSupply,omitempty"`
}
