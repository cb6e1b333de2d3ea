// Package reqbuilder implements the incremental request-array builder
// (spec C7): init writes the array-start and async-id header, add_*
// calls append arguments of any SO-encodable kind (numbers, strings,
// binaries, raw SO bytes, nested arrays), and finish closes the array,
// rejecting an empty request or unbalanced nesting.
package reqbuilder

import (
	"github.com/opatomic/opago/decimal"
	"github.com/opatomic/opago/opaerr"
	"github.com/opatomic/opago/so"
	"github.com/opatomic/opago/sotag"
	"github.com/opatomic/opago/varint"
)

// Builder assembles one request's wire bytes: `[async_id, cmd, args...]`.
// It is not safe for concurrent use; callers serialize their own
// init/add*/finish sequence per request (spec §4.7's calling-order
// contract).
type Builder struct {
	buf   []byte
	depth int
	err   error
}

// New starts a request, writing ARRAY_START followed by the caller's
// already SO-encoded async-id bytes (e.g. a NULL tag for "no id", or a
// numeric SO encoding for a real async id).
func New(asyncID []byte) *Builder {
	b := &Builder{buf: []byte{byte(sotag.ArrayStart)}}
	if len(asyncID) > 0 {
		b.buf = append(b.buf, asyncID...)
	}
	return b
}

// NullAsyncID returns the SO encoding of the NULL tag, the conventional
// "don't care" async id used for synchronous fire-and-forget requests.
func NullAsyncID() []byte { return []byte{byte(sotag.Null)} }

// Err returns the first error encountered by any add*/Start/Stop call, if
// any. Once set, all further add* calls are no-ops (mirroring the
// original builder's sticky-error short-circuit).
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// AddInt64 appends a signed integer argument, routing zero to ZERO and
// everything else through the decimal engine's canonical numeric store
// (VARINT below 2^63 in magnitude, BIGINT at exactly math.MinInt64's
// magnitude — see decimal.AppendSO).
func (b *Builder) AddInt64(v int64) {
	if b.err != nil {
		return
	}
	if v >= 0 {
		b.AddUint64(uint64(v))
		return
	}
	b.buf = decimal.FromU64(uint64(-(v+1))+1, true, 0).AppendSO(b.buf)
}

// AddUint64 appends an unsigned integer argument.
func (b *Builder) AddUint64(v uint64) {
	if b.err != nil {
		return
	}
	b.buf = decimal.FromU64(v, false, 0).AppendSO(b.buf)
}

// AddBigDec appends an arbitrary decimal value argument.
func (b *Builder) AddBigDec(d *decimal.Decimal) {
	if b.err != nil {
		return
	}
	b.buf = d.AppendSO(b.buf)
}

// AddNumStr parses s (radix 10) through the decimal text parser and
// appends its canonical SO form. Per spec §4.7, a textual "-0" (or any
// negative-signed decimal text whose value is zero, e.g. "-0.00",
// "-0e9") is special-cased to preserve the written sign at the wire
// level: the abstract decimal value normalizes negative zero away, but
// the builder still emits a tag carrying the negative significand sign,
// matching original_source's oparbAddNumStr.
func (b *Builder) AddNumStr(s string) {
	if b.err != nil {
		return
	}
	d, err := decimal.ParseText(s)
	if err != nil {
		b.fail(err)
		return
	}
	if d.IsZero() && len(s) > 0 && s[0] == '-' {
		// ParseText normalizes a zero's exponent to 0; the same text with a
		// nonzero leading digit keeps the written exponent.
		written, err := decimal.ParseText("1" + s[1:])
		if err != nil {
			b.fail(err)
			return
		}
		b.addNegZero(written.Exp())
		return
	}
	b.buf = d.AppendSO(b.buf)
}

func (b *Builder) addNegZero(exp int32) {
	if exp == 0 {
		b.buf = append(b.buf, byte(sotag.NegVarint), 0)
		return
	}
	tag := sotag.PosNegVarDec
	absExp := uint64(exp)
	if exp < 0 {
		tag = sotag.NegNegVarDec
		absExp = uint64(-exp)
	}
	b.buf = append(b.buf, byte(tag))
	b.buf = varint.Encode(b.buf, absExp)
	b.buf = append(b.buf, 0)
}

// AddUndefined, AddNull, AddBool, and AddSortMax append the single-byte
// sentinel values, mirroring the original builder's oparbAppend1 calls
// for a converted user token (spec §4.7/§4.11's reserved-word arguments:
// undefined, null, true/false, SORTMAX).
func (b *Builder) AddUndefined() {
	if b.err != nil {
		return
	}
	b.buf = append(b.buf, byte(sotag.Undefined))
}

func (b *Builder) AddNull() {
	if b.err != nil {
		return
	}
	b.buf = append(b.buf, byte(sotag.Null))
}

func (b *Builder) AddBool(v bool) {
	if b.err != nil {
		return
	}
	tag := sotag.False
	if v {
		tag = sotag.True
	}
	b.buf = append(b.buf, byte(tag))
}

func (b *Builder) AddSortMax() {
	if b.err != nil {
		return
	}
	b.buf = append(b.buf, byte(sotag.SortMax))
}

// AddSO appends a raw, pre-encoded, well-formed SO value verbatim.
func (b *Builder) AddSO(encoded []byte) {
	if b.err != nil {
		return
	}
	n, err := so.Len(encoded)
	if err != nil {
		b.fail(err)
		return
	}
	b.buf = append(b.buf, encoded[:n]...)
}

// AddStr appends a UTF-8 string argument. The caller is responsible for
// s actually being valid UTF-8 (spec §4.7: "add_str assumes UTF-8,
// caller-checked").
func (b *Builder) AddStr(s string) {
	if b.err != nil {
		return
	}
	b.buf = so.Encode(b.buf, so.String(s))
}

// AddBin appends a raw binary-blob argument.
func (b *Builder) AddBin(data []byte) {
	if b.err != nil {
		return
	}
	b.buf = so.Encode(b.buf, so.Binary(data))
}

// StartArray opens a nested array argument; it must be balanced by a
// matching StopArray before Finish.
func (b *Builder) StartArray() {
	if b.err != nil {
		return
	}
	b.buf = append(b.buf, byte(sotag.ArrayStart))
	b.depth++
}

// StopArray closes the innermost open nested array. A just-opened empty
// array collapses into the single-byte ARRAY_EMPTY tag in place, per
// spec §4.7's "start_array/stop_array elide a just-opened array into
// ARRAY_EMPTY."
func (b *Builder) StopArray() {
	if b.err != nil {
		return
	}
	if b.depth == 0 {
		b.fail(opaerr.New(opaerr.InvalidState, "reqbuilder: stop_array with no open array"))
		return
	}
	if len(b.buf) > 0 && sotag.Tag(b.buf[len(b.buf)-1]) == sotag.ArrayStart {
		b.buf[len(b.buf)-1] = byte(sotag.ArrayEmpty)
	} else {
		b.buf = append(b.buf, byte(sotag.ArrayEnd))
	}
	b.depth--
}

// Finish closes the outer request array and returns the completed wire
// bytes. It fails with opaerr.InvalidState if any nested array was left
// unbalanced, or if the request has no command/args beyond the async-id
// header (spec §4.7).
func (b *Builder) Finish() ([]byte, error) {
	if b.err == nil && b.depth > 0 {
		b.fail(opaerr.New(opaerr.InvalidState, "reqbuilder: unbalanced array nesting"))
	}
	if b.err == nil && b.isEmpty() {
		b.fail(opaerr.New(opaerr.InvalidState, "reqbuilder: empty request"))
	}
	if b.err != nil {
		return nil, b.err
	}
	b.buf = append(b.buf, byte(sotag.ArrayEnd))
	return b.buf, nil
}

func (b *Builder) isEmpty() bool {
	if len(b.buf) <= 1 {
		return true
	}
	idLen, err := so.Len(b.buf[1:])
	if err != nil {
		return true
	}
	return len(b.buf) <= 1+idLen
}
