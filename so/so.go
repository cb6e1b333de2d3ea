// Package so implements the SO (serialized object) value codec (spec
// C5): type-tagged encode/decode over the full value lattice — sentinels,
// numbers, strings, binaries, and nested arrays — plus Len, which
// computes the on-wire byte length of a well-formed encoded value without
// fully decoding it.
package so

import (
	"github.com/opatomic/opago/decimal"
	"github.com/opatomic/opago/opaerr"
	"github.com/opatomic/opago/sotag"
	"github.com/opatomic/opago/utf8scan"
	"github.com/opatomic/opago/varint"
)

// Kind identifies which arm of the value lattice a Value holds.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindFalse
	KindTrue
	KindSortMax
	KindNumber
	KindString
	KindBinary
	KindArray
)

// Value is one member of the Opatomic value lattice (spec §3). Only the
// field matching Kind is meaningful; the zero Value is KindUndefined.
type Value struct {
	Kind Kind
	Num  *decimal.Decimal
	Str  string
	Bin  []byte
	Arr  []*Value
}

func Undefined() *Value { return &Value{Kind: KindUndefined} }
func Null() *Value      { return &Value{Kind: KindNull} }
func Bool(b bool) *Value {
	if b {
		return &Value{Kind: KindTrue}
	}
	return &Value{Kind: KindFalse}
}
func SortMax() *Value { return &Value{Kind: KindSortMax} }
func Number(d *decimal.Decimal) *Value {
	return &Value{Kind: KindNumber, Num: d}
}
func String(s string) *Value { return &Value{Kind: KindString, Str: s} }
func Binary(b []byte) *Value { return &Value{Kind: KindBinary, Bin: b} }
func Array(elems []*Value) *Value {
	return &Value{Kind: KindArray, Arr: elems}
}

// Encode appends v's SO wire encoding to dst and returns the result.
func Encode(dst []byte, v *Value) []byte {
	switch v.Kind {
	case KindUndefined:
		return append(dst, byte(sotag.Undefined))
	case KindNull:
		return append(dst, byte(sotag.Null))
	case KindFalse:
		return append(dst, byte(sotag.False))
	case KindTrue:
		return append(dst, byte(sotag.True))
	case KindSortMax:
		return append(dst, byte(sotag.SortMax))
	case KindNumber:
		return v.Num.AppendSO(dst)
	case KindString:
		if v.Str == "" {
			return append(dst, byte(sotag.StrEmpty))
		}
		dst = append(dst, byte(sotag.StrLPVI))
		dst = varint.Encode(dst, uint64(len(v.Str)))
		return append(dst, v.Str...)
	case KindBinary:
		if len(v.Bin) == 0 {
			return append(dst, byte(sotag.BinEmpty))
		}
		dst = append(dst, byte(sotag.BinLPVI))
		dst = varint.Encode(dst, uint64(len(v.Bin)))
		return append(dst, v.Bin...)
	case KindArray:
		if len(v.Arr) == 0 {
			return append(dst, byte(sotag.ArrayEmpty))
		}
		dst = append(dst, byte(sotag.ArrayStart))
		for _, e := range v.Arr {
			dst = Encode(dst, e)
		}
		return append(dst, byte(sotag.ArrayEnd))
	default:
		return append(dst, byte(sotag.Undefined))
	}
}

// Decode decodes one top-level SO value from src (which must already have
// passed the framer, or otherwise be known-complete and well-formed) and
// returns the value and the number of bytes consumed.
func Decode(src []byte) (*Value, int, error) {
	if len(src) == 0 {
		return nil, 0, opaerr.New(opaerr.Eof, "so: empty input")
	}
	tag := sotag.Tag(src[0])
	switch tag {
	case sotag.Undefined:
		return Undefined(), 1, nil
	case sotag.Null:
		return Null(), 1, nil
	case sotag.False:
		return Bool(false), 1, nil
	case sotag.True:
		return Bool(true), 1, nil
	case sotag.SortMax:
		return SortMax(), 1, nil
	case sotag.StrEmpty:
		return String(""), 1, nil
	case sotag.BinEmpty:
		return Binary(nil), 1, nil
	case sotag.ArrayEmpty:
		return Array(nil), 1, nil
	case sotag.StrLPVI:
		return decodeLPVI(src, true)
	case sotag.BinLPVI:
		return decodeLPVI(src, false)
	case sotag.ArrayStart:
		return decodeArray(src)
	default:
		if sotag.IsNumeric(tag) {
			d, n, err := decimal.LoadSO(src)
			if err != nil {
				return nil, 0, err
			}
			return Number(d), n, nil
		}
		return nil, 0, opaerr.Newf(opaerr.Parse, "so: unknown tag %q", byte(tag))
	}
}

func decodeLPVI(src []byte, isStr bool) (*Value, int, error) {
	length, n1, err := varint.Decode(src[1:])
	if err != nil {
		return nil, 0, err
	}
	rest := src[1+n1:]
	if length > uint64(len(rest)) {
		return nil, 0, opaerr.New(opaerr.Eof, "so: truncated length-prefixed value")
	}
	body := rest[:length]
	total := 1 + n1 + int(length)
	if isStr {
		if !utf8scan.Valid(body) {
			return nil, 0, opaerr.New(opaerr.Parse, "so: invalid UTF-8 in string")
		}
		return String(string(body)), total, nil
	}
	b := make([]byte, len(body))
	copy(b, body)
	return Binary(b), total, nil
}

func decodeArray(src []byte) (*Value, int, error) {
	pos := 1
	var elems []*Value
	for {
		if pos >= len(src) {
			return nil, 0, opaerr.New(opaerr.Eof, "so: unterminated array")
		}
		if sotag.Tag(src[pos]) == sotag.ArrayEnd {
			pos++
			return Array(elems), pos, nil
		}
		v, n, err := Decode(src[pos:])
		if err != nil {
			return nil, 0, err
		}
		elems = append(elems, v)
		pos += n
	}
}

// Len returns the on-wire byte length of the well-formed encoded value at
// src[0] (spec §4.5's solen), traversing nested arrays to their matching
// ARRAY_END. It is only defined on trusted input: callers accepting
// untrusted bytes must run the framer first, per spec.
func Len(src []byte) (int, error) {
	if len(src) == 0 {
		return 0, opaerr.New(opaerr.Eof, "so: empty input")
	}
	tag := sotag.Tag(src[0])
	switch tag {
	case sotag.Undefined, sotag.Null, sotag.False, sotag.True, sotag.SortMax,
		sotag.StrEmpty, sotag.BinEmpty, sotag.ArrayEmpty,
		sotag.NegInf, sotag.PosInf, sotag.Zero:
		return 1, nil
	case sotag.StrLPVI, sotag.BinLPVI:
		length, n1, err := varint.Decode(src[1:])
		if err != nil {
			return 0, err
		}
		return 1 + n1 + int(length), nil
	case sotag.ArrayStart:
		pos := 1
		for {
			if pos >= len(src) {
				return 0, opaerr.New(opaerr.Eof, "so: unterminated array")
			}
			if sotag.Tag(src[pos]) == sotag.ArrayEnd {
				return pos + 1, nil
			}
			n, err := Len(src[pos:])
			if err != nil {
				return 0, err
			}
			pos += n
		}
	case sotag.PosVarint, sotag.NegVarint:
		_, n, err := varint.Decode(src[1:])
		if err != nil {
			return 0, err
		}
		return 1 + n, nil
	case sotag.PosBigint, sotag.NegBigint:
		return lenBigint(src[1:], 1)
	case sotag.PosPosVarDec, sotag.PosNegVarDec, sotag.NegPosVarDec, sotag.NegNegVarDec:
		_, n1, err := varint.Decode(src[1:])
		if err != nil {
			return 0, err
		}
		_, n2, err := varint.Decode(src[1+n1:])
		if err != nil {
			return 0, err
		}
		return 1 + n1 + n2, nil
	case sotag.PosPosBigDec, sotag.PosNegBigDec, sotag.NegPosBigDec, sotag.NegNegBigDec:
		_, n1, err := varint.Decode(src[1:])
		if err != nil {
			return 0, err
		}
		return lenBigint(src[1+n1:], 1+n1)
	default:
		return 0, opaerr.Newf(opaerr.Parse, "so: unknown tag %q", byte(tag))
	}
}

func lenBigint(src []byte, prefix int) (int, error) {
	numBytes, n1, err := varint.Decode(src)
	if err != nil {
		return 0, err
	}
	return prefix + n1 + int(numBytes), nil
}
