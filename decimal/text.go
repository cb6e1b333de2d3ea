package decimal

import (
	"strings"

	"github.com/opatomic/opago/bigint"
	"github.com/opatomic/opago/opaerr"
)

// String renders d in the canonical text form spec §4.4/§8 describes:
// plain decimal notation when the value's magnitude sits within a few
// orders of a unit, scientific notation (d.dddE+/-n) otherwise.
//
// The two branches use different thresholds, matching spec §4.4 branch 1
// ("if e >= 0 and e <= 6, append e zeros") and opabigdecToString's
// OPABIGDEC_MAXSTRZS == 6 check (opabigdec.c:743): the upper bound is on
// the raw exponent, not the adjusted one. The lower bound is on the
// adjusted exponent (digit count folded in), matching both sources'
// "0.0000021"-style fractional rendering.
func (d *Decimal) String() string {
	if !d.IsFinite() {
		if d.neg {
			return "-inf"
		}
		return "inf"
	}
	sign := ""
	if d.neg {
		sign = "-"
	}
	if d.sig.IsZero() {
		return sign + "0"
	}
	digits := d.sig.String()
	n := int32(len(digits))
	adjusted := d.exp + n - 1
	if (d.exp >= 0 && d.exp <= 6) || (d.exp < 0 && adjusted >= -6) {
		return sign + formatPlain(digits, d.exp)
	}
	return sign + formatSci(digits, adjusted)
}

// formatPlain renders digits*10^exp without an exponent marker, dropping
// trailing zeros that fall after an inserted decimal point (spec §4.4
// "Text format" branches 2/3). Branch 1 (exp >= 0) has no decimal point
// to trim after: the appended zeros are significant magnitude, not
// fractional noise.
func formatPlain(digits string, exp int32) string {
	if exp >= 0 {
		return digits + strings.Repeat("0", int(exp))
	}
	n := int32(len(digits))
	pointPos := n + exp // number of digits before the decimal point
	if pointPos > 0 {
		whole, frac := digits[:pointPos], trimTrailingZeros(digits[pointPos:])
		if frac == "" {
			return whole
		}
		return whole + "." + frac
	}
	frac := trimTrailingZeros(digits)
	if frac == "" {
		return "0"
	}
	return "0." + strings.Repeat("0", int(-pointPos)) + frac
}

// formatSci renders digits*10^exp as d[.ddd]E+/-adjusted, dropping
// trailing zeros from the fractional digits (spec §4.4 branch 4).
func formatSci(digits string, adjusted int32) string {
	var b strings.Builder
	b.WriteByte(digits[0])
	if frac := trimTrailingZeros(digits[1:]); frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	b.WriteByte('E')
	if adjusted >= 0 {
		b.WriteByte('+')
	}
	b.WriteString(itoa32(adjusted))
	return b.String()
}

func trimTrailingZeros(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	return s[:i]
}

func itoa32(v int32) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	var buf [16]byte
	i := len(buf)
	u := uint32(v)
	if neg {
		u = uint32(-v)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ParseText parses a decimal literal of the form
// [+-]digits[.digits][(e|E)[+-]digits], or an optionally signed "inf" or
// "infinity" in any letter case, per
// spec §4.4's text-parse operation. It fails with opaerr.Parse on
// malformed input.
func ParseText(s string) (*Decimal, error) {
	if s == "" {
		return nil, opaerr.New(opaerr.Parse, "decimal: empty text")
	}
	i := 0
	neg := false
	if s[i] == '+' || s[i] == '-' {
		neg = s[i] == '-'
		i++
	}
	if rest := strings.ToLower(s[i:]); rest == "inf" || rest == "infinity" {
		return Inf(neg), nil
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intDigits := s[start:i]
	fracDigits := ""
	if i < len(s) && s[i] == '.' {
		i++
		start = i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		fracDigits = s[start:i]
	}
	if intDigits == "" && fracDigits == "" {
		return nil, opaerr.New(opaerr.Parse, "decimal: no digits in mantissa")
	}
	exp := int32(0)
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		expNeg := false
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			expNeg = s[i] == '-'
			i++
		}
		start = i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return nil, opaerr.New(opaerr.Parse, "decimal: malformed exponent")
		}
		e, err := parseDecInt32(s[start:i])
		if err != nil {
			return nil, err
		}
		if expNeg {
			e = -e
		}
		exp = e
	}
	if i != len(s) {
		return nil, opaerr.New(opaerr.Parse, "decimal: trailing garbage")
	}
	exp -= int32(len(fracDigits))
	digits := strings.TrimLeft(intDigits+fracDigits, "0")
	if digits == "" {
		return Zero(), nil
	}
	sig := bigint.New()
	for _, c := range digits {
		sig = bigint.AddDigit(bigint.MulDigit(sig, 10), uint32(c-'0'))
	}
	return fromSig(sig, neg, exp), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseDecInt32(s string) (int32, error) {
	if s == "" {
		return 0, opaerr.New(opaerr.Parse, "decimal: empty integer")
	}
	var v int64
	for _, c := range s {
		if !isDigit(byte(c)) {
			return 0, opaerr.New(opaerr.Parse, "decimal: non-digit in integer")
		}
		v = v*10 + int64(c-'0')
		if v > 1<<31 {
			return 0, opaerr.New(opaerr.Overflow, "decimal: exponent out of range")
		}
	}
	return int32(v), nil
}
