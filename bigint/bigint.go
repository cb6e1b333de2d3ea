// Package bigint defines the abstract unbounded-signed-integer capability
// the decimal engine is built on (spec §4.3 / §9's "big-integer behind a
// capability" design note). The sign is tracked separately from the
// magnitude throughout this package and the decimal engine above it, so
// every method here operates on magnitudes unless its name says otherwise.
//
// This is the package's one stdlib-by-necessity component: no repo in the
// retrieved pack vendors a third-party arbitrary-precision integer library,
// while several (including a file in the pack itself) reach directly for
// math/big for this exact need, so math/big backs Int as the "native"
// capability implementation the spec's design note calls for. A
// from-scratch, FFI-free second backend would only reimplement math/big
// with no library to ground it on, so only one backend is provided.
package bigint

import (
	"math/big"
	"math/bits"

	"github.com/opatomic/opago/opaerr"
)

// digitBits is the size of the "single big-integer digit" the decimal
// engine's extend() batches by (spec §4.4): large enough that 10^8 fits
// in one digit, matching the spec's own example threshold.
const digitBits = 32

// Int is an arbitrary-precision unsigned magnitude. Sign is not stored
// here; callers (the decimal engine) track sign alongside significand.
type Int struct {
	m big.Int // always >= 0
}

// New returns a zero-valued Int.
func New() *Int {
	return &Int{}
}

// NewU64 returns an Int set to u.
func NewU64(u uint64) *Int {
	i := New()
	i.SetU64(u)
	return i
}

// SetU64 sets i to u and returns i.
func (i *Int) SetU64(u uint64) *Int {
	i.m.SetUint64(u)
	return i
}

// SetZero sets i to 0 and returns i.
func (i *Int) SetZero() *Int {
	i.m.SetInt64(0)
	return i
}

// Copy returns a new Int with the same magnitude as i.
func (i *Int) Copy() *Int {
	o := New()
	o.m.Set(&i.m)
	return o
}

// Set copies src's magnitude into i and returns i.
func (i *Int) Set(src *Int) *Int {
	i.m.Set(&src.m)
	return i
}

// IsZero reports whether i == 0.
func (i *Int) IsZero() bool {
	return i.m.Sign() == 0
}

// IsEven reports whether i's low bit is clear.
func (i *Int) IsEven() bool {
	return i.m.Bit(0) == 0
}

// BitLen returns the number of bits required to represent the magnitude,
// with BitLen(0) == 0.
func (i *Int) BitLen() int {
	return i.m.BitLen()
}

// CmpMag compares two magnitudes: -1 if a<b, 0 if equal, 1 if a>b.
func CmpMag(a, b *Int) int {
	return a.m.CmpAbs(&b.m)
}

// Add returns a new Int holding a+b (both magnitudes).
func Add(a, b *Int) *Int {
	o := New()
	o.m.Add(&a.m, &b.m)
	return o
}

// Sub returns a new Int holding a-b. Callers (the decimal engine) never
// call this where a<b; behavior mirrors math/big (result would be
// negative, which breaks the magnitude-only invariant) and is therefore a
// programmer error to invoke that way.
func Sub(a, b *Int) *Int {
	o := New()
	o.m.Sub(&a.m, &b.m)
	return o
}

// Mul returns a new Int holding a*b.
func Mul(a, b *Int) *Int {
	o := New()
	o.m.Mul(&a.m, &b.m)
	return o
}

// AddDigit returns a+d where d is a single-limb value (< 2^32).
func AddDigit(a *Int, d uint32) *Int {
	o := New()
	o.m.Add(&a.m, new(big.Int).SetUint64(uint64(d)))
	return o
}

// MulDigit returns a*d where d is a single-limb value (< 2^32).
func MulDigit(a *Int, d uint32) *Int {
	o := New()
	o.m.Mul(&a.m, new(big.Int).SetUint64(uint64(d)))
	return o
}

// DivDigit divides a by the single digit d, returning the quotient and
// remainder. It fails with opaerr.InvalidArg when d == 0, matching spec
// §4.3 ("divide-by-zero-digit fails with InvalidArg. No other error
// classes are exposed.").
func DivDigit(a *Int, d uint32) (*Int, uint32, error) {
	if d == 0 {
		return nil, 0, opaerr.New(opaerr.InvalidArg, "bigint: divide by zero digit")
	}
	q := New()
	r := new(big.Int)
	q.m.DivMod(&a.m, new(big.Int).SetUint64(uint64(d)), r)
	return q, uint32(r.Uint64()), nil
}

// MagU64 returns the low 64 bits of the magnitude and whether the full
// magnitude fit in 64 bits without truncation. Per spec §4.3 the
// conversion is "lossy when > 64 bits": callers that need an exact
// conversion must check the ok result themselves (the decimal engine's
// get_mag_u64 does, turning a false into Overflow).
func (i *Int) MagU64() (v uint64, ok bool) {
	if i.m.BitLen() > 64 {
		var mask big.Int
		mask.SetUint64(^uint64(0))
		var low big.Int
		low.And(&i.m, &mask)
		return low.Uint64(), false
	}
	return i.m.Uint64(), true
}

// FromBytes sets i to the unsigned big-endian magnitude encoded in b.
func (i *Int) FromBytes(b []byte) *Int {
	i.m.SetBytes(b)
	return i
}

// Bytes returns the minimal-length unsigned big-endian encoding of i's
// magnitude. Bytes(0) returns a zero-length slice; callers that need a
// length >= 1 for zero (none in this module do: zero is never wire-encoded
// as BIGINT/BIGDEC, see so package) must special-case it themselves.
func (i *Int) Bytes() []byte {
	return i.m.Bytes()
}

// NumLimbs returns the number of big.Word-sized limbs in the magnitude's
// native representation (0 for zero).
func (i *Int) NumLimbs() int {
	return len(i.m.Bits())
}

// Limb returns the idx'th limb (least-significant first), matching the
// capability's "limb count and limb accessor (for magnitude export)" from
// spec §4.3.
func (i *Int) Limb(idx int) uint {
	return uint(i.m.Bits()[idx])
}

// LimbBits is the bit width of one native limb on this platform (32 or
// 64).
const LimbBits = bits.UintSize

// DigitBits is the width extend() treats as "one digit" for batching
// purposes (spec: "e.g. 10^8 when the underlying digit is >= 28 bits").
const DigitBits = digitBits

// String returns the decimal text of the magnitude (no sign).
func (i *Int) String() string {
	return i.m.String()
}
