package types

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Outpoint references a specific output in a transaction.
type Outpoint struct {
	TxID  chainhash.Hash `json:"txid"`
	Index uint32         `json:"index"`
}

// IsZero returns true if the outpoint has a zero TxID and zero index.
func (o Outpoint) IsZero() bool {
	return o.TxID == chainhash.Hash{} && o.Index == 0
}

// String returns "txid:index" with the txid in display order.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID.String(), o.Index)
}

// Wire converts the outpoint to its wire representation.
func (o Outpoint) Wire() *wire.OutPoint {
	return wire.NewOutPoint(&o.TxID, o.Index)
}
