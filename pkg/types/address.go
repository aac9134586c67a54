package types

import (
	"fmt"

	"github.com/Klingon-tech/xecwallet/pkg/cashaddr"
)

// Address prefixes for CashAddr encoding.
const (
	MainnetPrefix = "ecash"
	TestnetPrefix = "ectest"
)

// Address is a decoded CashAddr destination.
type Address struct {
	Prefix string
	Type   cashaddr.AddrType
	Hash   [20]byte
}

// NewP2PKHAddress returns the P2PKH address for a public-key hash.
func NewP2PKHAddress(prefix string, pkh [20]byte) Address {
	return Address{Prefix: prefix, Type: cashaddr.P2PKH, Hash: pkh}
}

// ParseAddress decodes a CashAddr string under the given prefix. Only
// 20-byte P2PKH and P2SH destinations are accepted.
func ParseAddress(s, prefix string) (Address, error) {
	typ, hash, err := cashaddr.Decode(s, prefix)
	if err != nil {
		return Address{}, err
	}
	if typ != cashaddr.P2PKH && typ != cashaddr.P2SH {
		return Address{}, fmt.Errorf("%w: unsupported type %d", cashaddr.ErrInvalidAddress, typ)
	}
	if len(hash) != 20 {
		return Address{}, fmt.Errorf("%w: hash must be 20 bytes, got %d", cashaddr.ErrInvalidAddress, len(hash))
	}
	a := Address{Prefix: prefix, Type: typ}
	copy(a.Hash[:], hash)
	return a, nil
}

// AddressFromScript recovers the address paying to a P2PKH or P2SH script.
func AddressFromScript(script []byte, prefix string) (Address, bool) {
	switch ClassifyScript(script) {
	case ScriptTypeP2PKH:
		pkh, _ := ExtractPKH(script)
		return NewP2PKHAddress(prefix, pkh), true
	case ScriptTypeP2SH:
		a := Address{Prefix: prefix, Type: cashaddr.P2SH}
		copy(a.Hash[:], script[2:22])
		return a, true
	default:
		return Address{}, false
	}
}

// String returns the prefixed CashAddr encoding.
func (a Address) String() string {
	s, err := cashaddr.Encode(a.Prefix, a.Type, a.Hash[:])
	if err != nil {
		return fmt.Sprintf("%s:<invalid %x>", a.Prefix, a.Hash)
	}
	return s
}

// Script returns the locking script that pays to this address.
func (a Address) Script() []byte {
	if a.Type == cashaddr.P2SH {
		return P2SHScript(a.Hash)
	}
	return P2PKHScript(a.Hash)
}
