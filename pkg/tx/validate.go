package tx

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/Klingon-tech/xecwallet/pkg/crypto"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// Validation errors.
var (
	ErrNoInputs          = errors.New("transaction has no inputs")
	ErrNoOutputs         = errors.New("transaction has no outputs")
	ErrDuplicateInput    = errors.New("duplicate input")
	ErrOutputOverflow    = errors.New("output values overflow")
	ErrDustOutput        = errors.New("output below dust limit")
	ErrInvalidSig        = errors.New("invalid signature")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Validate checks transaction structure: at least one input and output, no
// duplicate inputs, and every output either a zero-value OP_RETURN or at
// least dust.
func Validate(msgTx *wire.MsgTx, dust uint64) error {
	if len(msgTx.TxIn) == 0 {
		return ErrNoInputs
	}
	if len(msgTx.TxOut) == 0 {
		return ErrNoOutputs
	}

	seen := make(map[wire.OutPoint]bool, len(msgTx.TxIn))
	for i, in := range msgTx.TxIn {
		if seen[in.PreviousOutPoint] {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[in.PreviousOutPoint] = true
	}

	for i, out := range msgTx.TxOut {
		if err := checkOutput(out.Value, out.PkScript, dust); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	_, err := TotalOutputValue(msgTx)
	return err
}

func checkOutput(value int64, script []byte, dust uint64) error {
	if types.ClassifyScript(script) == types.ScriptTypeOpReturn {
		if value != 0 {
			return fmt.Errorf("%w: op_return carries %d sats", ErrDustOutput, value)
		}
		return nil
	}
	if value < 0 || uint64(value) < dust {
		return fmt.Errorf("%w: %d < %d", ErrDustOutput, value, dust)
	}
	return nil
}

// VerifySignatures checks every input's P2PKH unlocking script against the
// output it spends. prevOuts must be in input order.
func VerifySignatures(msgTx *wire.MsgTx, prevOuts []PrevOut) error {
	if len(prevOuts) != len(msgTx.TxIn) {
		return fmt.Errorf("have %d prevouts for %d inputs", len(prevOuts), len(msgTx.TxIn))
	}
	for i, in := range msgTx.TxIn {
		pkh, ok := types.ExtractPKH(prevOuts[i].Script)
		if !ok {
			return fmt.Errorf("input %d: spent output is not P2PKH", i)
		}
		data, err := pushes(in.SignatureScript)
		if err != nil || len(data) != 2 || len(data[0]) < 2 {
			return fmt.Errorf("input %d: %w: malformed scriptsig", i, ErrInvalidSig)
		}
		sig, pub := data[0], data[1]
		hashType := uint32(sig[len(sig)-1])
		if hashType != SigHashAllForkID {
			return fmt.Errorf("input %d: %w: sighash 0x%02x", i, ErrInvalidSig, hashType)
		}
		if got := crypto.Hash160(pub); !bytes.Equal(got[:], pkh[:]) {
			return fmt.Errorf("input %d: %w: pubkey does not match script", i, ErrInvalidSig)
		}
		hash, err := CalcSignatureHash(msgTx, i, prevOuts[i], hashType)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if !crypto.VerifySignature(hash[:], sig[:len(sig)-1], pub) {
			return fmt.Errorf("input %d: %w", i, ErrInvalidSig)
		}
	}
	return nil
}
