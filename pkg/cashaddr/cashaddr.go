// Package cashaddr implements the CashAddr address format used by eCash.
package cashaddr

import (
	"errors"
	"fmt"
	"strings"
)

// charset is the base32 alphabet shared with bech32.
const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// checksumLen is the number of 5-bit groups in the 40-bit checksum.
const checksumLen = 8

// charsetRev maps charset characters to their 5-bit values. -1 = invalid.
var charsetRev [128]int8

func init() {
	for i := range charsetRev {
		charsetRev[i] = -1
	}
	for i, c := range charset {
		charsetRev[c] = int8(i)
	}
}

// ErrInvalidAddress is returned (wrapped) for every decoding failure.
var ErrInvalidAddress = errors.New("invalid address")

// AddrType is the address kind stored in the version byte.
type AddrType uint8

const (
	P2PKH AddrType = 0
	P2SH  AddrType = 1
)

// String returns a human-readable name for the address type.
func (t AddrType) String() string {
	switch t {
	case P2PKH:
		return "P2PKH"
	case P2SH:
		return "P2SH"
	default:
		return "Unknown"
	}
}

// hashSizes maps the 3-bit size code of the version byte to a hash length.
var hashSizes = [8]int{20, 24, 28, 32, 40, 48, 56, 64}

func sizeCode(n int) (byte, bool) {
	for i, s := range hashSizes {
		if s == n {
			return byte(i), true
		}
	}
	return 0, false
}

// Encode encodes a hash as a prefixed CashAddr string (e.g. "ecash:q...").
func Encode(prefix string, typ AddrType, hash []byte) (string, error) {
	if len(prefix) == 0 {
		return "", fmt.Errorf("cashaddr: empty prefix")
	}
	if prefix != strings.ToLower(prefix) {
		return "", fmt.Errorf("cashaddr: prefix must be lowercase")
	}
	if typ > 15 {
		return "", fmt.Errorf("cashaddr: invalid type %d", typ)
	}
	size, ok := sizeCode(len(hash))
	if !ok {
		return "", fmt.Errorf("cashaddr: unsupported hash length %d", len(hash))
	}

	payload := make([]byte, 0, len(hash)+1)
	payload = append(payload, byte(typ)<<3|size)
	payload = append(payload, hash...)

	conv, err := convertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("cashaddr: convert bits: %w", err)
	}
	chk := createChecksum(prefix, conv)

	var sb strings.Builder
	sb.Grow(len(prefix) + 1 + len(conv) + checksumLen)
	sb.WriteString(prefix)
	sb.WriteByte(':')
	for _, b := range conv {
		sb.WriteByte(charset[b])
	}
	for _, b := range chk {
		sb.WriteByte(charset[b])
	}
	return sb.String(), nil
}

// Decode parses a CashAddr string. The prefix may be omitted from addr, in
// which case the expected prefix is assumed; an explicit prefix must match it.
func Decode(addr, prefix string) (AddrType, []byte, error) {
	if len(addr) == 0 {
		return 0, nil, fmt.Errorf("%w: empty string", ErrInvalidAddress)
	}

	hasUpper := false
	hasLower := false
	for _, c := range addr {
		if c >= 'A' && c <= 'Z' {
			hasUpper = true
		}
		if c >= 'a' && c <= 'z' {
			hasLower = true
		}
	}
	if hasUpper && hasLower {
		return 0, nil, fmt.Errorf("%w: mixed case", ErrInvalidAddress)
	}
	addr = strings.ToLower(addr)
	prefix = strings.ToLower(prefix)

	payload := addr
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		if addr[:i] != prefix {
			return 0, nil, fmt.Errorf("%w: prefix %q, want %q", ErrInvalidAddress, addr[:i], prefix)
		}
		payload = addr[i+1:]
	}
	if len(payload) <= checksumLen {
		return 0, nil, fmt.Errorf("%w: too short", ErrInvalidAddress)
	}

	data5 := make([]byte, len(payload))
	for i, c := range payload {
		if c > 127 || charsetRev[c] < 0 {
			return 0, nil, fmt.Errorf("%w: invalid character %q", ErrInvalidAddress, c)
		}
		data5[i] = byte(charsetRev[c])
	}

	if !verifyChecksum(prefix, data5) {
		return 0, nil, fmt.Errorf("%w: invalid checksum", ErrInvalidAddress)
	}

	data8, err := convertBits(data5[:len(data5)-checksumLen], 5, 8, false)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(data8) < 1 {
		return 0, nil, fmt.Errorf("%w: missing version byte", ErrInvalidAddress)
	}

	version := data8[0]
	if version&0x80 != 0 {
		return 0, nil, fmt.Errorf("%w: reserved version bit set", ErrInvalidAddress)
	}
	hash := data8[1:]
	if want := hashSizes[version&0x07]; len(hash) != want {
		return 0, nil, fmt.Errorf("%w: hash length %d, version says %d", ErrInvalidAddress, len(hash), want)
	}
	return AddrType(version >> 3), hash, nil
}

// DecodeP2PKH decodes addr and requires it to be a 20-byte P2PKH address.
func DecodeP2PKH(addr, prefix string) ([20]byte, error) {
	var pkh [20]byte
	typ, hash, err := Decode(addr, prefix)
	if err != nil {
		return pkh, err
	}
	if typ != P2PKH || len(hash) != 20 {
		return pkh, fmt.Errorf("%w: not a P2PKH address", ErrInvalidAddress)
	}
	copy(pkh[:], hash)
	return pkh, nil
}

// IsValid reports whether addr decodes under the given prefix.
func IsValid(addr, prefix string) bool {
	_, _, err := Decode(addr, prefix)
	return err == nil
}

// polymod computes the 40-bit CashAddr checksum polynomial.
func polymod(values []byte) uint64 {
	gen := [5]uint64{0x98f2bc8e61, 0x79b76d99e2, 0xf33e5fb3c4, 0xae2eabe2a8, 0x1e4f43e470}
	c := uint64(1)
	for _, d := range values {
		c0 := byte(c >> 35)
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)
		for i := 0; i < 5; i++ {
			if (c0>>uint(i))&1 == 1 {
				c ^= gen[i]
			}
		}
	}
	return c ^ 1
}

// prefixExpand maps the prefix to the low 5 bits of each character plus a zero separator.
func prefixExpand(prefix string) []byte {
	ret := make([]byte, 0, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		ret = append(ret, prefix[i]&0x1f)
	}
	return append(ret, 0)
}

func createChecksum(prefix string, data []byte) []byte {
	values := append(prefixExpand(prefix), data...)
	values = append(values, make([]byte, checksumLen)...)
	mod := polymod(values)
	ret := make([]byte, checksumLen)
	for i := 0; i < checksumLen; i++ {
		ret[i] = byte((mod >> uint(5*(checksumLen-1-i))) & 0x1f)
	}
	return ret
}

func verifyChecksum(prefix string, data []byte) bool {
	return polymod(append(prefixExpand(prefix), data...)) == 0
}

// convertBits converts between bit groups.
// fromBits/toBits are the source/destination group sizes (e.g. 8 and 5).
// pad controls whether incomplete groups are zero-padded.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	maxv := uint32((1 << toBits) - 1)
	var ret []byte

	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, fmt.Errorf("invalid data byte: %d", b)
		}
		acc = acc<<fromBits | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			ret = append(ret, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			ret = append(ret, byte((acc<<(toBits-bits))&maxv))
		}
	} else {
		if bits >= fromBits {
			return nil, fmt.Errorf("non-zero padding")
		}
		if (acc<<(toBits-bits))&maxv != 0 {
			return nil, fmt.Errorf("non-zero padding")
		}
	}

	return ret, nil
}
