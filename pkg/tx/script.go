package tx

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// OpReturnScript builds OP_RETURN followed by one minimal push per chunk.
func OpReturnScript(chunks ...[]byte) ([]byte, error) {
	b := txscript.NewScriptBuilder().AddOp(txscript.OP_RETURN)
	for _, c := range chunks {
		b.AddData(c)
	}
	script, err := b.Script()
	if err != nil {
		return nil, fmt.Errorf("build op_return: %w", err)
	}
	return script, nil
}

// P2PKHSpendScript builds <sig+hashtype> <pubkey>.
func P2PKHSpendScript(sig, pubKey []byte) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().AddData(sig).AddData(pubKey).Script()
	if err != nil {
		return nil, fmt.Errorf("build scriptsig: %w", err)
	}
	return script, nil
}

// pushes returns the data pushes of a push-only script.
func pushes(script []byte) ([][]byte, error) {
	var out [][]byte
	tok := txscript.MakeScriptTokenizer(0, script)
	for tok.Next() {
		if tok.Opcode() > txscript.OP_16 {
			return nil, fmt.Errorf("non-push opcode 0x%02x", tok.Opcode())
		}
		out = append(out, tok.Data())
	}
	if err := tok.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
