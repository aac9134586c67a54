package tx

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Signature hash types.
const (
	SigHashAll       uint32 = 0x01
	SigHashForkID    uint32 = 0x40
	SigHashAllForkID        = SigHashAll | SigHashForkID
)

// CalcSignatureHash computes the replay-protected (BIP143 layout, FORKID)
// digest that input idx signs. Only SIGHASH_ALL|FORKID is supported.
func CalcSignatureHash(msgTx *wire.MsgTx, idx int, prev PrevOut, hashType uint32) (chainhash.Hash, error) {
	if idx < 0 || idx >= len(msgTx.TxIn) {
		return chainhash.Hash{}, fmt.Errorf("input index %d out of range (%d inputs)", idx, len(msgTx.TxIn))
	}
	if hashType != SigHashAllForkID {
		return chainhash.Hash{}, fmt.Errorf("unsupported sighash type 0x%02x", hashType)
	}

	var prevouts, sequences, outputs bytes.Buffer
	for _, in := range msgTx.TxIn {
		prevouts.Write(in.PreviousOutPoint.Hash[:])
		prevouts.Write(binary.LittleEndian.AppendUint32(nil, in.PreviousOutPoint.Index))
		sequences.Write(binary.LittleEndian.AppendUint32(nil, in.Sequence))
	}
	for _, out := range msgTx.TxOut {
		if err := wire.WriteTxOut(&outputs, 0, msgTx.Version, out); err != nil {
			return chainhash.Hash{}, fmt.Errorf("write output: %w", err)
		}
	}

	in := msgTx.TxIn[idx]
	var preimage bytes.Buffer
	preimage.Write(binary.LittleEndian.AppendUint32(nil, uint32(msgTx.Version)))
	preimage.Write(chainhash.DoubleHashB(prevouts.Bytes()))
	preimage.Write(chainhash.DoubleHashB(sequences.Bytes()))
	preimage.Write(in.PreviousOutPoint.Hash[:])
	preimage.Write(binary.LittleEndian.AppendUint32(nil, in.PreviousOutPoint.Index))
	if err := wire.WriteVarBytes(&preimage, 0, prev.Script); err != nil {
		return chainhash.Hash{}, fmt.Errorf("write script code: %w", err)
	}
	preimage.Write(binary.LittleEndian.AppendUint64(nil, prev.Value))
	preimage.Write(binary.LittleEndian.AppendUint32(nil, in.Sequence))
	preimage.Write(chainhash.DoubleHashB(outputs.Bytes()))
	preimage.Write(binary.LittleEndian.AppendUint32(nil, msgTx.LockTime))
	preimage.Write(binary.LittleEndian.AppendUint32(nil, hashType))

	return chainhash.DoubleHashH(preimage.Bytes()), nil
}
