// Package decimal implements the Opatomic arbitrary-precision decimal
// engine: signed significand * 10^exponent, with add/sub/mul, lossless
// "extend" (raise exponent), bounded conversion to/from 64-bit words, text
// parsing, and canonicalizing text formatting. It is layered directly on
// the bigint capability (spec §4.3) and is in turn the number
// representation every numeric SO tag (spec §3/§6) decodes into.
package decimal

import (
	"math"

	"github.com/opatomic/opago/bigint"
	"github.com/opatomic/opago/opaerr"
)

// infSign names which infinity (if any) a Decimal holds.
type infSign int8

const (
	infNone infSign = 0
	infNeg  infSign = -1
	infPos  infSign = 1
)

// Decimal is value = (-1)^neg * sig * 10^exp, or +/-infinity. The zero
// value of Decimal is not usable (its sig pointer is nil); Zero returns
// the canonical decimal zero (neg=false, sig=0, exp=0, inf=infNone).
//
// Invariant: when inf != infNone, sig is zero and exp == 0. Invariant:
// when sig is zero and inf == infNone, neg == false and exp == 0 (this
// second invariant only holds after normalize(); Extend deliberately does
// not restore it, since it is specified purely as value-preserving — see
// Extend's doc comment).
type Decimal struct {
	neg bool
	inf infSign
	sig *bigint.Int
	exp int32
}

// Zero returns the canonical decimal zero.
func Zero() *Decimal {
	return &Decimal{sig: bigint.New()}
}

// Inf returns +infinity (neg=false) or -infinity (neg=true).
func Inf(neg bool) *Decimal {
	s := infPos
	if neg {
		s = infNeg
	}
	return &Decimal{neg: neg, inf: s, sig: bigint.New()}
}

// FromU64 constructs sig=u * 10^exp, negated if neg is set. Per spec
// §4.4's "set_u64(v, u, sign, exp) trivially constructs," with the zero
// invariant enforced when u == 0.
func FromU64(u uint64, neg bool, exp int32) *Decimal {
	sig := bigint.NewU64(u)
	if sig.IsZero() {
		neg = false
		exp = 0
	}
	return &Decimal{neg: neg, sig: sig, exp: exp}
}

// fromSig builds a normalized Decimal from a magnitude, sign, and
// exponent, forcing the zero invariant (non-negative sign, exponent 0)
// when the magnitude is zero.
func fromSig(sig *bigint.Int, neg bool, exp int32) *Decimal {
	if sig.IsZero() {
		return &Decimal{sig: sig}
	}
	return &Decimal{neg: neg, sig: sig, exp: exp}
}

// Copy returns an independent copy of d.
func (d *Decimal) Copy() *Decimal {
	return &Decimal{neg: d.neg, inf: d.inf, sig: d.sig.Copy(), exp: d.exp}
}

// IsFinite reports whether d is not an infinity.
func (d *Decimal) IsFinite() bool { return d.inf == infNone }

// IsZero reports whether d is the finite value zero.
func (d *Decimal) IsZero() bool { return d.inf == infNone && d.sig.IsZero() }

// IsNeg reports the sign bit: true for negative finite values and
// -infinity.
func (d *Decimal) IsNeg() bool { return d.neg }

// Exp returns the base-10 exponent. Meaningless (always 0) for infinities.
func (d *Decimal) Exp() int32 { return d.exp }

// Neg returns -d.
func (d *Decimal) Neg() *Decimal {
	if !d.IsFinite() {
		return Inf(!d.neg)
	}
	if d.sig.IsZero() {
		return Zero()
	}
	return &Decimal{neg: !d.neg, sig: d.sig.Copy(), exp: d.exp}
}

// Extend raises the significand's digit count by n (multiplying by 10^n)
// and decreases the exponent by n, a value-preserving transform (spec
// §4.4, glossary "Extend"). It fails with opaerr.Overflow if the
// decremented exponent would underflow int32. n must be >= 0.
//
// Extend does not renormalize a zero significand's exponent back to 0;
// that canonicalization happens only at SO-store time (see AppendSO),
// matching the original C implementation where extend() is a pure
// significand/exponent transform with no zero special-case.
func (d *Decimal) Extend(n int32) (*Decimal, error) {
	if n < 0 {
		return nil, opaerr.New(opaerr.InvalidArg, "decimal: extend requires n >= 0")
	}
	if !d.IsFinite() {
		return d.Copy(), nil
	}
	if n == 0 {
		return d.Copy(), nil
	}
	newExp := int64(d.exp) - int64(n)
	if newExp < math.MinInt32 {
		return nil, opaerr.New(opaerr.Overflow, "decimal: extend exponent underflow")
	}
	return &Decimal{neg: d.neg, sig: extendSig(d.sig, int64(n)), exp: int32(newExp)}, nil
}

// extendChunkDigits is the largest power-of-ten batch that fits
// comfortably in one bigint digit (spec: "e.g. 10^8 when the underlying
// digit is >= 28 bits").
const extendChunkDigits = 8

var tenPowers = [extendChunkDigits + 1]uint32{
	1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000,
}

func extendSig(sig *bigint.Int, n int64) *bigint.Int {
	result := sig
	for n > 0 {
		chunk := n
		if chunk > extendChunkDigits {
			chunk = extendChunkDigits
		}
		result = bigint.MulDigit(result, tenPowers[chunk])
		n -= chunk
	}
	return result
}

// align returns (lo, hi) such that lo.exp <= hi.exp, and hiExt, the value
// of hi with its significand extended down to lo's exponent (so hiExt.exp
// == lo.exp). This mirrors the original opabigdecAdd/opabigdecSub
// reordering: the operand with the coarser (larger) exponent is the one
// extended, and the result exponent tracks the finer (smaller) exponent.
func align(a, b *Decimal) (lo, hiExt *Decimal, err error) {
	lo, hi := a, b
	if lo.exp > hi.exp {
		lo, hi = hi, lo
	}
	if hi.exp == lo.exp {
		return lo, hi, nil
	}
	hiExt, err = hi.Extend(hi.exp - lo.exp)
	if err != nil {
		return nil, nil, err
	}
	return lo, hiExt, nil
}

// Add returns a+b per spec §4.4: infinities propagate unless opposite
// signs meet, in which case it fails with opaerr.Overflow.
func Add(a, b *Decimal) (*Decimal, error) {
	if !a.IsFinite() || !b.IsFinite() {
		return addInf(a, b)
	}
	if a.IsZero() {
		return b.Copy(), nil
	}
	if b.IsZero() {
		return a.Copy(), nil
	}
	lo, hiExt, err := align(a, b)
	if err != nil {
		return nil, err
	}
	sig, neg := signedAdd(lo.sig, lo.neg, hiExt.sig, hiExt.neg)
	return fromSig(sig, neg, lo.exp), nil
}

func addInf(a, b *Decimal) (*Decimal, error) {
	if !a.IsFinite() && !b.IsFinite() {
		if a.neg != b.neg {
			return nil, opaerr.New(opaerr.Overflow, "decimal: (+inf)+(-inf) is undefined")
		}
		return Inf(a.neg), nil
	}
	if !a.IsFinite() {
		return Inf(a.neg), nil
	}
	return Inf(b.neg), nil
}

// Sub returns a-b. Per spec §4.4 this fails with opaerr.Overflow on
// (+inf)-(+inf) and (-inf)-(-inf), which falls out of Add(a, -b)
// automatically since negating an infinity flips its sign.
func Sub(a, b *Decimal) (*Decimal, error) {
	return Add(a, b.Neg())
}

// Mul returns a*b per spec §4.4: infinity times finite zero yields finite
// zero; otherwise the sign is the XOR of the operand signs.
func Mul(a, b *Decimal) (*Decimal, error) {
	if !a.IsFinite() || !b.IsFinite() {
		if a.IsFinite() && a.IsZero() {
			return Zero(), nil
		}
		if b.IsFinite() && b.IsZero() {
			return Zero(), nil
		}
		return Inf(a.neg != b.neg), nil
	}
	if a.IsZero() || b.IsZero() {
		return Zero(), nil
	}
	lo, hiExt, err := align(a, b)
	if err != nil {
		return nil, err
	}
	sig := bigint.Mul(lo.sig, hiExt.sig)
	neg := lo.neg != hiExt.neg
	exp64 := int64(lo.exp) + int64(hiExt.exp)
	if exp64 > math.MaxInt32 || exp64 < math.MinInt32 {
		return nil, opaerr.New(opaerr.Overflow, "decimal: multiply exponent out of range")
	}
	return fromSig(sig, neg, int32(exp64)), nil
}

// signedAdd adds two signed magnitudes and returns the signed result.
func signedAdd(sigA *bigint.Int, negA bool, sigB *bigint.Int, negB bool) (*bigint.Int, bool) {
	if negA == negB {
		return bigint.Add(sigA, sigB), negA
	}
	switch bigint.CmpMag(sigA, sigB) {
	case 0:
		return bigint.New(), false
	case 1:
		return bigint.Sub(sigA, sigB), negA
	default:
		return bigint.Sub(sigB, sigA), negB
	}
}

// GetMagU64 returns the exact unsigned 64-bit integer value of d, failing
// with opaerr.Overflow if d is infinite, has a non-integral value (a
// negative exponent with a nonzero remainder), or the magnitude does not
// fit in 64 bits. Mirrors opabigdecGetMag64 exactly (see original_source).
func (d *Decimal) GetMagU64() (uint64, error) {
	if !d.IsFinite() {
		return 0, opaerr.New(opaerr.Overflow, "decimal: infinity has no integer value")
	}
	if d.exp > 0 {
		if d.sig.BitLen() > 64 {
			return 0, opaerr.New(opaerr.Overflow, "decimal: magnitude exceeds 64 bits")
		}
		val, _ := d.sig.MagU64()
		exp := d.exp
		const max10 = math.MaxUint64 / 10
		for exp > 0 && val <= max10 {
			val *= 10
			exp--
		}
		if exp > 0 {
			return 0, opaerr.New(opaerr.Overflow, "decimal: value too large for u64")
		}
		return val, nil
	}
	if d.exp < 0 {
		tmp := d.sig
		exp := d.exp
		for exp < 0 {
			q, r, _ := bigint.DivDigit(tmp, 10)
			if r != 0 {
				return 0, opaerr.New(opaerr.Overflow, "decimal: value is not an exact integer")
			}
			tmp = q
			exp++
		}
		if tmp.BitLen() > 64 {
			return 0, opaerr.New(opaerr.Overflow, "decimal: magnitude exceeds 64 bits")
		}
		val, _ := tmp.MagU64()
		return val, nil
	}
	if d.sig.BitLen() > 64 {
		return 0, opaerr.New(opaerr.Overflow, "decimal: magnitude exceeds 64 bits")
	}
	val, _ := d.sig.MagU64()
	return val, nil
}
