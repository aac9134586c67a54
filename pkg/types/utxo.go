package types

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Utxo is an unspent output as reported by the indexer.
// BlockHeight is -1 while the output is unconfirmed.
type Utxo struct {
	Outpoint    Outpoint   `json:"outpoint"`
	Value       uint64     `json:"value"`
	Script      []byte     `json:"script"`
	BlockHeight int32      `json:"blockHeight"`
	IsCoinbase  bool       `json:"isCoinbase"`
	Token       *TokenData `json:"token,omitempty"`
}

// IsPureValue reports whether the UTXO carries no token data.
func (u *Utxo) IsPureValue() bool {
	return u.Token == nil
}

// IsMintBaton reports whether the UTXO is a mint baton.
func (u *Utxo) IsMintBaton() bool {
	return u.Token != nil && u.Token.IsMintBaton
}

// HoldsToken reports whether the UTXO carries spendable atoms of id.
// Mint batons never hold atoms.
func (u *Utxo) HoldsToken(id chainhash.Hash) bool {
	return u.Token != nil && !u.Token.IsMintBaton && u.Token.TokenID == id
}

// Tx is the subset of an indexed transaction the wallet reads.
type Tx struct {
	TxID          chainhash.Hash `json:"txid"`
	Version       int32          `json:"version"`
	Outputs       []TxOutput     `json:"outputs"`
	LockTime      uint32         `json:"lockTime"`
	BlockHeight   int32          `json:"blockHeight"`
	TimeFirstSeen int64          `json:"timeFirstSeen"`
	Size          uint32         `json:"size"`
	IsCoinbase    bool           `json:"isCoinbase"`
}

// TxOutput is a transaction output with its token annotation.
type TxOutput struct {
	Value   uint64     `json:"value"`
	Script  []byte     `json:"script"`
	Token   *TokenData `json:"token,omitempty"`
	SpentBy *Outpoint  `json:"spentBy,omitempty"`
}

// BlockchainInfo describes the indexer's chain tip.
type BlockchainInfo struct {
	TipHash   chainhash.Hash `json:"tipHash"`
	TipHeight int32          `json:"tipHeight"`
}
