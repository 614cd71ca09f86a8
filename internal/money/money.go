// Package money provides exact decimal parsing and formatting for payout
// and commission amounts.
//
// Amounts are held as big.Rat built from the literal decimal text, so a
// payout keeps every fractional digit it was written with and summing any
// number of payouts never loses precision. Rounding happens only when an
// amount is formatted.
package money

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Decimals is the number of fractional digits Format prints.
const Decimals = 6

// maxExponent bounds the exponent of scientific notation so a short string
// cannot expand into an arbitrarily large number.
const maxExponent = 64

// decimalPattern is the only accepted spelling: unsigned base-10 digits with
// an optional fraction and an optional exponent.
var decimalPattern = regexp.MustCompile(`^(\d*)(?:\.(\d*))?(?:[eE]([+-]?\d+))?$`)

// Parse converts a decimal string (e.g. "10.50") to an exact amount.
// Returns (nil, false) on invalid input.
//
// Rules:
//   - Surrounding whitespace is ignored
//   - Empty string returns (0, true)
//   - Signs, hex/octal prefixes, fractions ("1/2") and separators are rejected
//   - Exponent notation ("1.5e1") is accepted, as JSON numbers may use it
//   - No digits are dropped: "0.0000009" is a positive amount
func Parse(s string) (*big.Rat, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Rat), true
	}

	m := decimalPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	whole, frac, exp := m[1], m[2], m[3]
	if whole == "" && frac == "" {
		return nil, false
	}

	scale := len(frac)
	if exp != "" {
		e, err := strconv.Atoi(exp)
		if err != nil || e > maxExponent || e < -maxExponent {
			return nil, false
		}
		scale -= e
	}

	mantissa, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, false
	}
	r := new(big.Rat).SetInt(mantissa)
	pow := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(scale))), nil))
	if scale > 0 {
		r.Quo(r, pow)
	} else {
		r.Mul(r, pow)
	}
	return r, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Format renders amount with exactly 6 decimal places (e.g. "10.500000"),
// rounding half away from zero beyond that.
func Format(amount *big.Rat) string {
	return format(amount, Decimals)
}

// FormatCents renders amount with two decimal places, rounding half away
// from zero (e.g. 10.505 -> "10.51").
func FormatCents(amount *big.Rat) string {
	return format(amount, 2)
}

func format(amount *big.Rat, places int) string {
	if amount == nil {
		amount = new(big.Rat)
	}
	s := amount.FloatString(places)
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		s = s[1:]
	}
	return s
}

// Float converts amount to float64 for metric export.
// Not for arithmetic.
func Float(amount *big.Rat) float64 {
	if amount == nil {
		return 0
	}
	f, _ := amount.Float64()
	return f
}
