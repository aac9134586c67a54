// Package tx builds, signs and checks eCash transactions.
package tx

import (
	"bytes"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/wire"
)

// TxVersion is the version used for every transaction the wallet builds.
const TxVersion = 2

// PrevOut is the output spent by an input. The signature digest commits to
// both its script and its value.
type PrevOut struct {
	Value  uint64
	Script []byte
}

// TotalOutputValue returns the sum of all output values.
// Returns an error if the sum overflows uint64 or an output is negative.
func TotalOutputValue(msgTx *wire.MsgTx) (uint64, error) {
	var total uint64
	for i, out := range msgTx.TxOut {
		if out.Value < 0 {
			return 0, fmt.Errorf("output %d: negative value", i)
		}
		v := uint64(out.Value)
		if total > math.MaxUint64-v {
			return 0, ErrOutputOverflow
		}
		total += v
	}
	return total, nil
}

// Serialize returns the raw network encoding of the transaction.
func Serialize(msgTx *wire.MsgTx) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(msgTx.SerializeSizeStripped())
	if err := msgTx.SerializeNoWitness(&buf); err != nil {
		return nil, fmt.Errorf("serialize tx: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize parses a raw transaction.
func Deserialize(raw []byte) (*wire.MsgTx, error) {
	msgTx := wire.NewMsgTx(TxVersion)
	if err := msgTx.DeserializeNoWitness(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("deserialize tx: %w", err)
	}
	return msgTx, nil
}
