package types

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// ParseUnits converts a decimal string in human units to the token's integer
// base unit using the declared decimal precision. The conversion is exact;
// floating point is never involved.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, errors.New("empty amount")
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return nil, errors.Errorf("invalid amount %q", amount)
	}
	if len(frac) > decimals {
		return nil, errors.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}

	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", amount)
	}
	if neg {
		v.Neg(v)
	}

	return v, nil
}

// FormatUnits converts an integer base-unit amount back to a decimal string
// in human units, trimming trailing zeros from the fractional part.
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}

	v := new(big.Int).Abs(amount)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(v, scale, new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		fs := frac.String()
		if pad := decimals - len(fs); pad > 0 {
			fs = strings.Repeat("0", pad) + fs
		}
		fs = strings.TrimRight(fs, "0")
		out += "." + fs
	}
	if amount.Sign() < 0 {
		out = "-" + out
	}

	return out
}
