package decimal

import (
	"github.com/opatomic/opago/bigint"
	"github.com/opatomic/opago/opaerr"
	"github.com/opatomic/opago/sotag"
	"github.com/opatomic/opago/varint"
)

// LoadSO decodes a numeric SO value starting at src[0] (the tag byte) per
// spec §4.4/§6's numeric load table, returning the value and the number
// of bytes consumed. Tag names encode [exponent sign][mantissa sign]:
// NEGPOSVARDEC, for instance, is a negative exponent over a positive
// significand (see the "1.25e-3" worked example, spec §8 scenario 2).
func LoadSO(src []byte) (*Decimal, int, error) {
	if len(src) == 0 {
		return nil, 0, opaerr.New(opaerr.Eof, "decimal: empty SO input")
	}
	tag := sotag.Tag(src[0])
	switch tag {
	case sotag.Zero:
		return Zero(), 1, nil
	case sotag.NegInf:
		return Inf(true), 1, nil
	case sotag.PosInf:
		return Inf(false), 1, nil
	case sotag.PosVarint, sotag.NegVarint:
		return loadVarint(src, tag == sotag.NegVarint)
	case sotag.PosBigint, sotag.NegBigint:
		return loadBigint(src[1:], tag == sotag.NegBigint, 0, 1)
	case sotag.PosPosVarDec, sotag.PosNegVarDec, sotag.NegPosVarDec, sotag.NegNegVarDec:
		return loadVarDec(src, tag)
	case sotag.PosPosBigDec, sotag.PosNegBigDec, sotag.NegPosBigDec, sotag.NegNegBigDec:
		return loadBigDec(src, tag)
	default:
		return nil, 0, opaerr.New(opaerr.InvalidArg, "decimal: not a numeric SO tag")
	}
}

func expSignOf(tag sotag.Tag) bool {
	switch tag {
	case sotag.NegPosVarDec, sotag.NegNegVarDec, sotag.NegPosBigDec, sotag.NegNegBigDec:
		return true
	default:
		return false
	}
}

func manSignOf(tag sotag.Tag) bool {
	switch tag {
	case sotag.PosNegVarDec, sotag.NegNegVarDec, sotag.PosNegBigDec, sotag.NegNegBigDec:
		return true
	default:
		return false
	}
}

func loadVarint(src []byte, neg bool) (*Decimal, int, error) {
	u, n, err := varint.Decode(src[1:])
	if err != nil {
		return nil, 0, err
	}
	return FromU64(u, neg, 0), 1 + n, nil
}

// loadExponent decodes the varint exponent magnitude at src and applies
// expNeg, enforcing the same bound as opabigdecLoadExponent: the stored
// magnitude must fit in an int32 once signed (one extra value of slack on
// the negative side, matching two's-complement range).
func loadExponent(src []byte, expNeg bool) (int32, int, error) {
	u, n, err := varint.Decode(src)
	if err != nil {
		return 0, 0, err
	}
	if expNeg {
		if u > uint64(1)<<31 {
			return 0, 0, opaerr.New(opaerr.InvalidArg, "decimal: exponent magnitude out of range")
		}
		return int32(-int64(u)), n, nil
	}
	if u > uint64(1)<<31-1 {
		return 0, 0, opaerr.New(opaerr.InvalidArg, "decimal: exponent magnitude out of range")
	}
	return int32(u), n, nil
}

func loadVarDec(src []byte, tag sotag.Tag) (*Decimal, int, error) {
	expNeg := expSignOf(tag)
	manNeg := manSignOf(tag)
	exp, n1, err := loadExponent(src[1:], expNeg)
	if err != nil {
		return nil, 0, err
	}
	man, n2, err := varint.Decode(src[1+n1:])
	if err != nil {
		return nil, 0, err
	}
	return FromU64(man, manNeg, exp), 1 + n1 + n2, nil
}

func loadBigint(src []byte, neg bool, exp int32, tagLen int) (*Decimal, int, error) {
	numBytes, n1, err := varint.Decode(src)
	if err != nil {
		return nil, 0, err
	}
	rest := src[n1:]
	if numBytes > uint64(len(rest)) {
		return nil, 0, opaerr.New(opaerr.Eof, "decimal: truncated bigint magnitude")
	}
	sig := bigint.New()
	sig.FromBytes(rest[:numBytes])
	return fromSig(sig, neg, exp), tagLen + n1 + int(numBytes), nil
}

func loadBigDec(src []byte, tag sotag.Tag) (*Decimal, int, error) {
	expNeg := expSignOf(tag)
	manNeg := manSignOf(tag)
	exp, n1, err := loadExponent(src[1:], expNeg)
	if err != nil {
		return nil, 0, err
	}
	return loadBigint(src[1+n1:], manNeg, exp, 1+n1)
}

// AppendSO appends d's canonical SO encoding to dst and returns the
// result, per spec §4.4's store rule: a value whose significand fits in
// under 64 bits encodes as ZERO/VARINT/VARDEC; larger magnitudes encode
// as BIGINT/BIGDEC. A nonzero exponent always forces the *DEC forms even
// when the value is, numerically, an integer (the encoding is chosen by
// representation, not by the abstract value: "1000e-3" stores as VARDEC,
// not VARINT, even though it equals 1).
func (d *Decimal) AppendSO(dst []byte) []byte {
	if !d.IsFinite() {
		if d.neg {
			return append(dst, byte(sotag.NegInf))
		}
		return append(dst, byte(sotag.PosInf))
	}
	if d.sig.IsZero() {
		return append(dst, byte(sotag.Zero))
	}
	if d.sig.BitLen() < 64 {
		val, _ := d.sig.MagU64()
		if d.exp == 0 {
			tag := sotag.PosVarint
			if d.neg {
				tag = sotag.NegVarint
			}
			dst = append(dst, byte(tag))
			return varint.Encode(dst, val)
		}
		absExp, expNeg := absExpOf(d.exp)
		dst = append(dst, byte(varDecTag(expNeg, d.neg)))
		dst = varint.Encode(dst, uint64(absExp))
		return varint.Encode(dst, val)
	}
	if d.exp == 0 {
		tag := sotag.PosBigint
		if d.neg {
			tag = sotag.NegBigint
		}
		dst = append(dst, byte(tag))
		return appendBigintBody(dst, d.sig)
	}
	absExp, expNeg := absExpOf(d.exp)
	dst = append(dst, byte(bigDecTag(expNeg, d.neg)))
	dst = varint.Encode(dst, uint64(absExp))
	return appendBigintBody(dst, d.sig)
}

func absExpOf(exp int32) (uint32, bool) {
	if exp < 0 {
		return uint32(-exp), true
	}
	return uint32(exp), false
}

func varDecTag(expNeg, manNeg bool) sotag.Tag {
	switch {
	case !expNeg && !manNeg:
		return sotag.PosPosVarDec
	case !expNeg && manNeg:
		return sotag.PosNegVarDec
	case expNeg && !manNeg:
		return sotag.NegPosVarDec
	default:
		return sotag.NegNegVarDec
	}
}

func bigDecTag(expNeg, manNeg bool) sotag.Tag {
	switch {
	case !expNeg && !manNeg:
		return sotag.PosPosBigDec
	case !expNeg && manNeg:
		return sotag.PosNegBigDec
	case expNeg && !manNeg:
		return sotag.NegPosBigDec
	default:
		return sotag.NegNegBigDec
	}
}

func appendBigintBody(dst []byte, sig *bigint.Int) []byte {
	b := sig.Bytes()
	dst = varint.Encode(dst, uint64(len(b)))
	return append(dst, b...)
}
