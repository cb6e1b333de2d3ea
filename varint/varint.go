// Package varint implements the Opatomic varint sub-encoding: an unsigned
// 64-bit integer packed 7 bits per byte, little-endian, high bit set on
// every byte but the last. Canonical form forbids a final continuation
// byte of zero and forbids the 10th byte from setting any bit above bit 63.
package varint

import "github.com/opatomic/opago/opaerr"

// MaxLen is the longest a canonical varint encoding of a uint64 can be:
// ceil(64/7) == 10 bytes.
const MaxLen = 10

// Len returns the number of bytes Encode would write for v, without writing
// them.
func Len(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// Encode appends the varint encoding of v to dst and returns the extended
// slice.
func Encode(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// PutBuf writes the varint encoding of v into buf, which must have at least
// Len(v) bytes of capacity, and returns the number of bytes written.
func PutBuf(buf []byte, v uint64) int {
	n := 0
	for v >= 0x80 {
		buf[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	buf[n] = byte(v)
	return n + 1
}

// Decode reads a canonical varint from the front of src. It returns the
// decoded value, the number of bytes consumed, and an error. A return of
// (0, 0, nil) never happens: on success n >= 1.
//
// Decode fails with opaerr.Eof if src does not contain a complete varint
// (every byte has the continuation bit set). It fails with opaerr.Parse if
// the encoding is non-canonical (the final byte, at any position 1..9, has
// value 0 — i.e. a trailing zero byte that could have been omitted) or if
// the 10th byte would set any bit above bit 63.
func Decode(src []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i := 0; i < len(src); i++ {
		b := src[i]
		if i == MaxLen-1 {
			// 10th byte: only bit 0 may be set (bits 63..69 of the
			// logical value would overflow uint64).
			if b&0xFE != 0 {
				return 0, 0, opaerr.New(opaerr.Parse, "varint: 10th byte overflows 64 bits")
			}
			if b == 0 {
				return 0, 0, opaerr.New(opaerr.Parse, "varint: non-canonical trailing zero byte")
			}
			v |= uint64(b) << shift
			return v, i + 1, nil
		}
		if b < 0x80 {
			if i > 0 && b == 0 {
				return 0, 0, opaerr.New(opaerr.Parse, "varint: non-canonical trailing zero byte")
			}
			v |= uint64(b) << shift
			return v, i + 1, nil
		}
		v |= uint64(b&0x7F) << shift
		shift += 7
	}
	return 0, 0, opaerr.New(opaerr.Eof, "varint: incomplete")
}

// DecodeFull decodes src as a single varint and requires that the entire
// slice be consumed; it fails with opaerr.Parse if trailing bytes remain.
func DecodeFull(src []byte) (uint64, error) {
	v, n, err := Decode(src)
	if err != nil {
		return 0, err
	}
	if n != len(src) {
		return 0, opaerr.New(opaerr.Parse, "varint: trailing bytes")
	}
	return v, nil
}
