package alp

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// ErrNotEmpp is returned when a script is not an eMPP envelope.
var ErrNotEmpp = errors.New("not an eMPP script")

// EmppScript builds OP_RETURN OP_RESERVED followed by one push per section.
func EmppScript(sections ...[]byte) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("empp: no sections")
	}
	b := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddOp(txscript.OP_RESERVED)
	for i, s := range sections {
		if len(s) == 0 {
			return nil, fmt.Errorf("empp: section %d is empty", i)
		}
		b.AddData(s)
	}
	script, err := b.Script()
	if err != nil {
		return nil, fmt.Errorf("empp: %w", err)
	}
	return script, nil
}

// ParseEmpp returns the sections of an eMPP script.
func ParseEmpp(script []byte) ([][]byte, error) {
	if len(script) < 2 || script[0] != txscript.OP_RETURN || script[1] != txscript.OP_RESERVED {
		return nil, ErrNotEmpp
	}
	var sections [][]byte
	tok := txscript.MakeScriptTokenizer(0, script[2:])
	for tok.Next() {
		if tok.Opcode() == txscript.OP_0 || tok.Opcode() > txscript.OP_PUSHDATA4 {
			return nil, fmt.Errorf("%w: non-data opcode 0x%02x", ErrNotEmpp, tok.Opcode())
		}
		sections = append(sections, tok.Data())
	}
	if err := tok.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEmpp, err)
	}
	return sections, nil
}
