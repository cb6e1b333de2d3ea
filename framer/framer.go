// Package framer implements the restartable SO streaming framer (spec
// C6): a byte-at-a-time state machine that locates the end of the next
// top-level SO value in an untrusted byte stream, resuming correctly
// across arbitrary chunk boundaries. It is the only component permitted
// to run ahead of solen/so.Decode on untrusted input (spec §4.5/§4.6).
package framer

import (
	"math"

	"github.com/opatomic/opago/opaerr"
	"github.com/opatomic/opago/sotag"
	"github.com/opatomic/opago/utf8scan"
)

type state int

const (
	stateNextObj state = iota
	stateVarint2
	stateVarDec
	stateBigDec
	stateUTF8
	stateSkipBytes
	stateCheckBigIntBytes
	stateReturnObj
	stateErr
)

// Options bounds the framer against hostile input (spec §4.6/§6: "array
// depth, big-int byte count, and decimal exponent have
// implementation-configurable upper bounds").
type Options struct {
	MaxArrayDepth uint64
	CheckUTF8     bool
	MaxBigIntLen  uint64
	MaxDecExp     uint64
}

// DefaultOptions matches the spec's "sane defaults": unlimited depth,
// unlimited big-int length, UTF-8 checking on, exponent bounded to
// int32's range.
func DefaultOptions() Options {
	return Options{
		MaxArrayDepth: math.MaxUint64,
		CheckUTF8:     true,
		MaxBigIntLen:  math.MaxUint64,
		MaxDecExp:     math.MaxInt32,
	}
}

// Framer holds the resumable parse state: current state, array nesting
// depth, an in-progress varint scratch register, and the UTF-8 validator
// substate for string bodies.
type Framer struct {
	opt             Options
	state           state
	arrayDepth      uint64
	varintLen       int
	varintVal       uint64
	varintNextState state
	utf8State       utf8scan.State
}

// New returns a Framer ready to locate top-level values per opt.
func New(opt Options) *Framer {
	return &Framer{opt: opt, utf8State: utf8scan.First}
}

func (f *Framer) resetVarint() {
	f.varintLen = 0
	f.varintVal = 0
}

func (f *Framer) fail() (int, bool, error) {
	f.state = stateErr
	return 0, false, opaerr.New(opaerr.Parse, "framer: malformed SO input")
}

// FindEnd scans buf starting from the framer's resumed state. If a
// complete top-level value ends within buf, it returns (n, true, nil)
// where n is the offset just past the value's final byte. If buf is
// exhausted before a value completes, it returns (len(buf), false, nil)
// and the caller should call FindEnd again once more bytes are
// available, passing only the newly received bytes (not a re-send of
// buf's already-consumed prefix). Once a Parse error occurs the Framer
// is stuck in the error state and every subsequent call fails the same
// way (spec §4.6: "any violation transitions to ERR... returns Parse on
// every subsequent call").
func (f *Framer) FindEnd(buf []byte) (int, bool, error) {
	pos := 0
	end := len(buf)
	for {
		switch f.state {
		case stateErr:
			return 0, false, opaerr.New(opaerr.Parse, "framer: sticky parse error")

		case stateNextObj:
			if pos >= end {
				return pos, false, nil
			}
			tag := sotag.Tag(buf[pos])
			pos++
			switch tag {
			case sotag.Undefined, sotag.Null, sotag.False, sotag.True,
				sotag.NegInf, sotag.PosInf, sotag.Zero,
				sotag.BinEmpty, sotag.StrEmpty, sotag.ArrayEmpty, sotag.SortMax:
				f.state = stateReturnObj
			case sotag.PosVarint, sotag.NegVarint:
				f.resetVarint()
				f.varintNextState = stateReturnObj
				f.state = stateVarint2
			case sotag.PosBigint, sotag.NegBigint:
				f.resetVarint()
				f.varintNextState = stateCheckBigIntBytes
				f.state = stateVarint2
			case sotag.PosPosVarDec, sotag.PosNegVarDec, sotag.NegPosVarDec, sotag.NegNegVarDec:
				f.resetVarint()
				f.varintNextState = stateVarDec
				f.state = stateVarint2
			case sotag.PosPosBigDec, sotag.PosNegBigDec, sotag.NegPosBigDec, sotag.NegNegBigDec:
				f.resetVarint()
				f.varintNextState = stateBigDec
				f.state = stateVarint2
			case sotag.BinLPVI:
				f.resetVarint()
				f.varintNextState = stateSkipBytes
				f.state = stateVarint2
			case sotag.StrLPVI:
				f.resetVarint()
				f.utf8State = utf8scan.First
				if f.opt.CheckUTF8 {
					f.varintNextState = stateUTF8
				} else {
					f.varintNextState = stateSkipBytes
				}
				f.state = stateVarint2
			case sotag.ArrayStart:
				if f.arrayDepth >= f.opt.MaxArrayDepth {
					return f.fail()
				}
				f.arrayDepth++
				f.state = stateNextObj
			case sotag.ArrayEnd:
				if f.arrayDepth == 0 {
					return f.fail()
				}
				f.arrayDepth--
				if f.arrayDepth == 0 {
					f.state = stateNextObj
					return pos, true, nil
				}
				f.state = stateNextObj
			default:
				return f.fail()
			}

		case stateVarint2:
			newPos, needMore, bad := f.scanVarint(buf, pos, end)
			pos = newPos
			if bad {
				return f.fail()
			}
			if needMore {
				return pos, false, nil
			}
			f.state = f.varintNextState

		case stateVarDec:
			if f.varintVal > f.opt.MaxDecExp {
				return f.fail()
			}
			f.resetVarint()
			f.varintNextState = stateReturnObj
			f.state = stateVarint2

		case stateBigDec:
			if f.varintVal > f.opt.MaxDecExp {
				return f.fail()
			}
			f.resetVarint()
			f.varintNextState = stateCheckBigIntBytes
			f.state = stateVarint2

		case stateUTF8:
			newPos, needMore, bad := f.scanUTF8(buf, pos, end)
			pos = newPos
			if bad {
				return f.fail()
			}
			if needMore {
				return pos, false, nil
			}
			f.state = stateReturnObj

		case stateCheckBigIntBytes:
			if f.varintVal == 0 || f.varintVal > f.opt.MaxBigIntLen {
				return f.fail()
			}
			if pos >= end {
				return pos, false, nil
			}
			if buf[pos] == 0 && f.varintVal > 1 {
				return f.fail()
			}
			f.state = stateSkipBytes

		case stateSkipBytes:
			newPos, needMore := f.scanSkip(pos, end)
			pos = newPos
			if needMore {
				return pos, false, nil
			}
			f.state = stateReturnObj

		case stateReturnObj:
			if f.arrayDepth == 0 {
				f.state = stateNextObj
				return pos, true, nil
			}
			f.state = stateNextObj
		}
	}
}

// scanVarint consumes as much of a varint as buf[pos:end] offers,
// mirroring opappFindEndInternal's ParseVarint2 label exactly: bad is
// true for a non-canonical encoding (trailing zero byte) or for any byte
// following 9 continuation bytes, so varints longer than 9 bytes fail.
func (f *Framer) scanVarint(buf []byte, pos, end int) (newPos int, needMore, bad bool) {
	for pos < end && buf[pos]&0x80 != 0 && f.varintLen < 9 {
		f.varintVal |= uint64(buf[pos]&0x7F) << uint(f.varintLen*7)
		pos++
		f.varintLen++
	}
	if pos == end {
		return pos, true, false
	}
	if f.varintLen >= 9 || (buf[pos] == 0 && f.varintLen > 0) {
		return pos, false, true
	}
	f.varintVal |= uint64(buf[pos]&0x7F) << uint(f.varintLen*7)
	pos++
	return pos, false, false
}

// scanSkip consumes up to f.varintVal raw bytes (a binary blob body or a
// bigint magnitude), decrementing the outstanding count across calls.
func (f *Framer) scanSkip(pos, end int) (newPos int, needMore bool) {
	avail := uint64(end - pos)
	if avail < f.varintVal {
		f.varintVal -= avail
		return end, true
	}
	return pos + int(f.varintVal), false
}

// scanUTF8 validates up to f.varintVal string bytes through the
// resumable UTF-8 DFA, decrementing the outstanding count across calls.
func (f *Framer) scanUTF8(buf []byte, pos, end int) (newPos int, needMore, bad bool) {
	avail := uint64(end - pos)
	n := avail
	if n > f.varintVal {
		n = f.varintVal
	}
	f.utf8State = utf8scan.Scan(f.utf8State, buf[pos:pos+int(n)])
	if f.utf8State == utf8scan.Err {
		return pos, false, true
	}
	if n < f.varintVal {
		f.varintVal -= n
		return pos + int(n), true, false
	}
	if f.utf8State != utf8scan.First {
		// the declared length ended mid-sequence
		return pos, false, true
	}
	return pos + int(n), false, false
}
