package types

import (
	"github.com/btcsuite/btcd/txscript"
)

// ScriptType identifies the type of a locking script.
type ScriptType uint8

const (
	ScriptTypeNonStandard ScriptType = iota
	ScriptTypeP2PKH                  // Pay to public key hash
	ScriptTypeP2SH                   // Pay to script hash
	ScriptTypeOpReturn               // Provably unspendable data carrier
)

// String returns a human-readable name for the script type.
func (st ScriptType) String() string {
	switch st {
	case ScriptTypeP2PKH:
		return "P2PKH"
	case ScriptTypeP2SH:
		return "P2SH"
	case ScriptTypeOpReturn:
		return "OP_RETURN"
	default:
		return "NonStandard"
	}
}

// P2PKHScriptLen is the length of a P2PKH locking script.
const P2PKHScriptLen = 25

// ClassifyScript returns the type of a locking script.
func ClassifyScript(script []byte) ScriptType {
	switch {
	case len(script) > 0 && script[0] == txscript.OP_RETURN:
		return ScriptTypeOpReturn
	case isP2PKH(script):
		return ScriptTypeP2PKH
	case isP2SH(script):
		return ScriptTypeP2SH
	default:
		return ScriptTypeNonStandard
	}
}

// P2PKHScript builds OP_DUP OP_HASH160 <pkh> OP_EQUALVERIFY OP_CHECKSIG.
func P2PKHScript(pkh [20]byte) []byte {
	script := make([]byte, 0, P2PKHScriptLen)
	script = append(script, txscript.OP_DUP, txscript.OP_HASH160, txscript.OP_DATA_20)
	script = append(script, pkh[:]...)
	return append(script, txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG)
}

// P2SHScript builds OP_HASH160 <sh> OP_EQUAL.
func P2SHScript(sh [20]byte) []byte {
	script := make([]byte, 0, 23)
	script = append(script, txscript.OP_HASH160, txscript.OP_DATA_20)
	script = append(script, sh[:]...)
	return append(script, txscript.OP_EQUAL)
}

// ExtractPKH returns the public-key hash of a P2PKH script.
func ExtractPKH(script []byte) ([20]byte, bool) {
	var pkh [20]byte
	if !isP2PKH(script) {
		return pkh, false
	}
	copy(pkh[:], script[3:23])
	return pkh, true
}

func isP2PKH(script []byte) bool {
	return len(script) == P2PKHScriptLen &&
		script[0] == txscript.OP_DUP &&
		script[1] == txscript.OP_HASH160 &&
		script[2] == txscript.OP_DATA_20 &&
		script[23] == txscript.OP_EQUALVERIFY &&
		script[24] == txscript.OP_CHECKSIG
}

func isP2SH(script []byte) bool {
	return len(script) == 23 &&
		script[0] == txscript.OP_HASH160 &&
		script[1] == txscript.OP_DATA_20 &&
		script[22] == txscript.OP_EQUAL
}
