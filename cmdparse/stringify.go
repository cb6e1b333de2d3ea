package cmdparse

import (
	"strings"

	"github.com/opatomic/opago/so"
	"github.com/opatomic/opago/utf8scan"
)

const hexChars = "0123456789ABCDEF"

// Stringify renders a decoded value as the human-readable, JSON-superset
// text this module's parser can read back: quoted/escaped strings and
// binaries, bareword sentinels (undefined, null, true, false, SORTMAX),
// decimal text for numbers, and bracketed arrays. Grounded on
// opasostringify.c's opasoStringifyInternal, adapted to walk the already
// decoded *so.Value tree (this module decodes with the so package rather
// than re-walking raw SO bytes by hand, so there is no on-wire opasolen
// equivalent to call here).
//
// space is the per-level indent string; pass "" for the original's
// compact one-line form. A non-empty space places each array element on
// its own, progressively indented line.
func Stringify(v *so.Value, space string) string {
	var b strings.Builder
	stringifyInto(&b, v, space, 0)
	return b.String()
}

func stringifyInto(b *strings.Builder, v *so.Value, space string, depth int) {
	switch v.Kind {
	case so.KindUndefined:
		b.WriteString("undefined")
	case so.KindNull:
		b.WriteString("null")
	case so.KindFalse:
		b.WriteString("false")
	case so.KindTrue:
		b.WriteString("true")
	case so.KindSortMax:
		b.WriteString("SORTMAX")
	case so.KindString:
		if v.Str == "" {
			b.WriteString(`""`)
			return
		}
		b.WriteByte('"')
		escapeString(b, []byte(v.Str), false)
		b.WriteByte('"')
	case so.KindBinary:
		if len(v.Bin) == 0 {
			b.WriteString("''")
			return
		}
		b.WriteByte('\'')
		escapeBin(b, v.Bin)
		b.WriteByte('\'')
	case so.KindNumber:
		b.WriteString(v.Num.String())
	case so.KindArray:
		stringifyArray(b, v.Arr, space, depth)
	}
}

func stringifyArray(b *strings.Builder, elems []*so.Value, space string, depth int) {
	if len(elems) == 0 {
		b.WriteString("[]")
		return
	}
	b.WriteByte('[')
	writeIndent(b, space, depth+1)
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(',')
			writeIndent(b, space, depth+1)
		}
		stringifyInto(b, e, space, depth+1)
	}
	writeIndent(b, space, depth)
	b.WriteByte(']')
}

func writeIndent(b *strings.Builder, space string, depth int) {
	if space == "" {
		return
	}
	b.WriteByte('\n')
	for i := 0; i < depth; i++ {
		b.WriteString(space)
	}
}

// escapeString escapes control characters and quote/backslash the way
// opasoEscapeString does; isBin flips which quote char is escaped versus
// left bare (a string escapes '"' and leaves '\'' alone; a binary blob is
// the opposite, since it is rendered inside single quotes).
func escapeString(b *strings.Builder, src []byte, isBin bool) {
	for _, ch := range src {
		switch ch {
		case '"':
			if isBin {
				b.WriteByte('"')
			} else {
				b.WriteString(`\"`)
			}
		case '\'':
			if isBin {
				b.WriteString(`\'`)
			} else {
				b.WriteByte('\'')
			}
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if ch < 0x20 || ch == 0x7f {
				prefix := `\u00`
				if isBin {
					prefix = `\x`
				}
				b.WriteString(prefix)
				b.WriteByte(hexChars[(ch&0xF0)>>4])
				b.WriteByte(hexChars[ch&0x0F])
			} else {
				b.WriteByte(ch)
			}
		}
	}
}

// escapeBin escapes a binary blob like opasoEscapeBin: runs of valid
// UTF-8 go through escapeString's isBin rules, and any byte that breaks
// UTF-8 validity is rendered as a \xHH escape.
func escapeBin(b *strings.Builder, src []byte) {
	for len(src) > 0 {
		n := findInvalidUTF8(src)
		if n < 0 {
			escapeString(b, src, true)
			return
		}
		if n > 0 {
			escapeString(b, src[:n], true)
		}
		b.WriteString(`\x`)
		b.WriteByte(hexChars[(src[n]&0xF0)>>4])
		b.WriteByte(hexChars[src[n]&0x0F])
		src = src[n+1:]
	}
}

// findInvalidUTF8 returns the index of the first byte of src that starts
// or belongs to an ill-formed UTF-8 sequence, or -1 if src is entirely
// well-formed, per opaFindInvalidUtf8 (reimplemented here on top of the
// shared utf8scan DFA rather than the original's hand-rolled byte
// ranges).
func findInvalidUTF8(src []byte) int {
	state := utf8scan.First
	start := 0
	for i, c := range src {
		if state == utf8scan.First {
			start = i
		}
		state = utf8scan.Step(state, c)
		if state == utf8scan.Err {
			return start
		}
	}
	if state != utf8scan.First {
		return start
	}
	return -1
}
