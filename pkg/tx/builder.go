package tx

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/Klingon-tech/xecwallet/pkg/crypto"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// Builder constructs transactions incrementally. At most one output may be
// the leftover output, whose value is fixed at signing time.
type Builder struct {
	inputs   []types.Utxo
	outputs  []*wire.TxOut
	leftover int
	lockTime uint32
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{leftover: -1}
}

// AddInput adds an input spending u.
func (b *Builder) AddInput(u types.Utxo) *Builder {
	b.inputs = append(b.inputs, u)
	return b
}

// AddInputs adds inputs spending each of us in order.
func (b *Builder) AddInputs(us []types.Utxo) *Builder {
	b.inputs = append(b.inputs, us...)
	return b
}

// AddOutput adds an output with a fixed value and script.
func (b *Builder) AddOutput(value uint64, script []byte) *Builder {
	b.outputs = append(b.outputs, wire.NewTxOut(int64(value), script))
	return b
}

// AddLeftover adds the output that receives inputs - outputs - fee.
// Calling it again moves the leftover to the new position.
func (b *Builder) AddLeftover(script []byte) *Builder {
	if b.leftover >= 0 {
		b.outputs = append(b.outputs[:b.leftover], b.outputs[b.leftover+1:]...)
	}
	b.leftover = len(b.outputs)
	b.outputs = append(b.outputs, wire.NewTxOut(0, script))
	return b
}

// SetLockTime sets the transaction lock time.
func (b *Builder) SetLockTime(lockTime uint32) *Builder {
	b.lockTime = lockTime
	return b
}

// NumInputs returns the number of inputs added so far.
func (b *Builder) NumInputs() int {
	return len(b.inputs)
}

// SignedTx is a fully signed transaction ready for broadcast.
type SignedTx struct {
	Tx  *wire.MsgTx
	Raw []byte
	Fee uint64
	// LeftoverIndex is the position of the leftover output, or -1 when it
	// was dropped (or never requested).
	LeftoverIndex int
}

// TxID returns the transaction id.
func (s *SignedTx) TxID() chainhash.Hash {
	return s.Tx.TxHash()
}

// Sign computes the fee at feePerKb from the worst-case signed size, sets the
// leftover value (dropping it when below dust), and signs every input with
// SIGHASH_ALL|FORKID.
func (b *Builder) Sign(signer crypto.Signer, feePerKb, dust uint64) (*SignedTx, error) {
	if len(b.inputs) == 0 {
		return nil, ErrNoInputs
	}
	if len(b.outputs) == 0 {
		return nil, ErrNoOutputs
	}

	var totalIn uint64
	for _, in := range b.inputs {
		if totalIn > math.MaxUint64-in.Value {
			return nil, fmt.Errorf("input values overflow")
		}
		totalIn += in.Value
	}

	var totalOut uint64
	scripts := make([][]byte, len(b.outputs))
	for i, out := range b.outputs {
		scripts[i] = out.PkScript
		if i == b.leftover {
			continue
		}
		if err := checkOutput(out.Value, out.PkScript, dust); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		v := uint64(out.Value)
		if totalOut > math.MaxUint64-v {
			return nil, ErrOutputOverflow
		}
		totalOut += v
	}

	fee := EstimateTxFee(len(b.inputs), scripts, feePerKb)
	if totalOut > math.MaxUint64-fee || totalIn < totalOut+fee {
		return nil, fmt.Errorf("%w: inputs %d, outputs %d, fee %d", ErrInsufficientFunds, totalIn, totalOut, fee)
	}

	outputs := make([]*wire.TxOut, 0, len(b.outputs))
	leftoverIdx := -1
	for i, out := range b.outputs {
		if i == b.leftover {
			left := totalIn - totalOut - fee
			if left < dust {
				continue
			}
			leftoverIdx = len(outputs)
			outputs = append(outputs, wire.NewTxOut(int64(left), out.PkScript))
			continue
		}
		outputs = append(outputs, wire.NewTxOut(out.Value, out.PkScript))
	}

	msgTx := wire.NewMsgTx(TxVersion)
	msgTx.LockTime = b.lockTime
	prevOuts := make([]PrevOut, len(b.inputs))
	for i, in := range b.inputs {
		msgTx.AddTxIn(wire.NewTxIn(in.Outpoint.Wire(), nil, nil))
		prevOuts[i] = PrevOut{Value: in.Value, Script: in.Script}
	}
	for _, out := range outputs {
		msgTx.AddTxOut(out)
	}

	pubKey := signer.PublicKey()
	for i := range msgTx.TxIn {
		hash, err := CalcSignatureHash(msgTx, i, prevOuts[i], SigHashAllForkID)
		if err != nil {
			return nil, fmt.Errorf("sighash input %d: %w", i, err)
		}
		sig, err := signer.Sign(hash[:])
		if err != nil {
			return nil, fmt.Errorf("sign input %d: %w", i, err)
		}
		sig = append(sig, byte(SigHashAllForkID))
		scriptSig, err := P2PKHSpendScript(sig, pubKey)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		msgTx.TxIn[i].SignatureScript = scriptSig
	}

	raw, err := Serialize(msgTx)
	if err != nil {
		return nil, err
	}

	totalSigned, err := TotalOutputValue(msgTx)
	if err != nil {
		return nil, err
	}
	return &SignedTx{
		Tx:            msgTx,
		Raw:           raw,
		Fee:           totalIn - totalSigned,
		LeftoverIndex: leftoverIdx,
	}, nil
}
