package wallet

import (
	"fmt"
	"math/big"
	"strings"
)

// XECDecimals is the number of decimals of the native coin (1 XEC = 100 sats).
const XECDecimals = 2

// MaxDecimals bounds the decimals accepted for parsing and token genesis.
const MaxDecimals = 9

// ParseAmount converts a display amount such as "10.55" or "10,55" into
// smallest units. Digits beyond decimals are rounded half up.
func ParseAmount(s string, decimals uint32) (uint64, error) {
	if decimals > MaxDecimals {
		return 0, fmt.Errorf("%w: %d decimals", ErrInvalidAmount, decimals)
	}
	s = strings.TrimSpace(s)
	s = strings.Replace(s, ",", ".", 1)

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	roundUp := false
	if uint32(len(fracPart)) > decimals {
		roundUp = fracPart[decimals] >= '5'
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", int(decimals)-len(fracPart))

	v, ok := new(big.Int).SetString("0"+intPart+fracPart, 10)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if roundUp {
		v.Add(v, big.NewInt(1))
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	return v.Uint64(), nil
}

// FormatAmount renders smallest units with exactly decimals fraction digits.
func FormatAmount(units uint64, decimals uint32) string {
	s := fmt.Sprintf("%0*d", int(decimals)+1, units)
	if decimals == 0 {
		return s
	}
	cut := len(s) - int(decimals)
	return s[:cut] + "." + s[cut:]
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
