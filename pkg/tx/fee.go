package tx

import "github.com/btcsuite/btcd/wire"

// P2PKHScriptSigMaxLen is the largest P2PKH unlocking script:
// push(DER signature + sighash byte, at most 73) + push(compressed pubkey).
const P2PKHScriptSigMaxLen = 1 + 73 + 1 + 33

// FeeForSize returns ceil(size * feePerKb / 1000).
func FeeForSize(size int, feePerKb uint64) uint64 {
	return (uint64(size)*feePerKb + 999) / 1000
}

// InputSize returns the serialized size of an input with the given scriptSig length.
func InputSize(scriptSigLen int) int {
	return 32 + 4 + wire.VarIntSerializeSize(uint64(scriptSigLen)) + scriptSigLen + 4
}

// OutputSize returns the serialized size of an output with the given script length.
func OutputSize(scriptLen int) int {
	return 8 + wire.VarIntSerializeSize(uint64(scriptLen)) + scriptLen
}

// EstimateSize returns the signed size of a transaction spending numInputs
// P2PKH inputs into outputs with the given scripts.
//
//	version(4) + varint(nIn) + inputs + varint(nOut) + outputs + locktime(4)
func EstimateSize(numInputs int, outputScripts [][]byte) int {
	size := 4 + wire.VarIntSerializeSize(uint64(numInputs)) +
		wire.VarIntSerializeSize(uint64(len(outputScripts))) + 4
	size += numInputs * InputSize(P2PKHScriptSigMaxLen)
	for _, s := range outputScripts {
		size += OutputSize(len(s))
	}
	return size
}

// EstimateTxFee returns the fee for a transaction spending numInputs P2PKH
// inputs into outputs with the given scripts.
func EstimateTxFee(numInputs int, outputScripts [][]byte, feePerKb uint64) uint64 {
	return FeeForSize(EstimateSize(numInputs, outputScripts), feePerKb)
}
