package cmdparse

import (
	"strings"

	"github.com/opatomic/opago/opaerr"
)

func hexVal(ch byte) (uint32, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return uint32(ch - '0'), true
	case ch >= 'A' && ch <= 'F':
		return uint32(ch-'A') + 10, true
	case ch >= 'a' && ch <= 'f':
		return uint32(ch-'a') + 10, true
	default:
		return 0, false
	}
}

func isAlphaNum(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

func isValidEscapeChar(ch byte) bool {
	if isAlphaNum(ch) {
		switch ch {
		case 'b', 'f', 'n', 'r', 't', 'u', 'x':
			return true
		default:
			return false
		}
	} else if ch <= 0x20 {
		return ch == ' '
	}
	return ch != 0x7f
}

// unescape decodes backslash escapes in a quoted token's body the way
// oparbStrUnescape does: \b \f \n \r \t pass through as control chars,
// \xHH and \uHHHH (including surrogate pairs) are converted to their
// UTF-8 bytes, and \<char> for a space or a printable non-alphanumeric
// char passes <char> through literally. Any other escaped letter or digit,
// a control char, or DEL is a Parse error.
func unescape(s string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		ch := s[i]
		if ch != '\\' {
			b.WriteByte(ch)
			i++
			continue
		}
		i++
		if i >= len(s) || !isValidEscapeChar(s[i]) {
			return "", opaerr.New(opaerr.Parse, "cmdparse: invalid escape sequence")
		}
		switch s[i] {
		case 'b':
			b.WriteByte('\b')
			i++
		case 'f':
			b.WriteByte('\f')
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'x':
			if i+3 > len(s) {
				return "", opaerr.New(opaerr.Parse, "cmdparse: truncated \\x escape")
			}
			hi, ok1 := hexVal(s[i+1])
			lo, ok2 := hexVal(s[i+2])
			if !ok1 || !ok2 {
				return "", opaerr.New(opaerr.Parse, "cmdparse: invalid \\x escape")
			}
			b.WriteByte(byte((hi << 4) | lo))
			i += 3
		case 'u':
			code, next, err := unescapeU16(s, i)
			if err != nil {
				return "", err
			}
			b.WriteRune(rune(code))
			i = next
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String(), nil
}

// unescapeU16 decodes one \uHHHH escape starting at s[pos] (pos points at
// the 'u'), consuming a trailing low-surrogate \uHHHH if the first value
// is a high surrogate, per RFC 2781 §2.2. Returns the decoded code point
// and the index just past the consumed escape(s).
func unescapeU16(s string, pos int) (uint32, int, error) {
	if pos+5 > len(s) {
		return 0, 0, opaerr.New(opaerr.Parse, "cmdparse: truncated \\u escape")
	}
	v, ok := hex4(s[pos+1 : pos+5])
	if !ok {
		return 0, 0, opaerr.New(opaerr.Parse, "cmdparse: invalid \\u escape")
	}
	next := pos + 5
	if v < 0xD800 || v > 0xDFFF {
		return v, next, nil
	}
	if v >= 0xDC00 {
		return 0, 0, opaerr.New(opaerr.Parse, "cmdparse: unpaired low surrogate")
	}
	if next+6 > len(s) || s[next] != '\\' || s[next+1] != 'u' {
		return 0, 0, opaerr.New(opaerr.Parse, "cmdparse: missing low surrogate")
	}
	v2, ok := hex4(s[next+2 : next+6])
	if !ok {
		return 0, 0, opaerr.New(opaerr.Parse, "cmdparse: invalid low surrogate")
	}
	if v2 < 0xDC00 || v2 > 0xDFFF {
		return 0, 0, opaerr.New(opaerr.Parse, "cmdparse: low surrogate out of range")
	}
	code := (((v & 0x3FF) << 10) | (v2 & 0x3FF)) + 0x10000
	return code, next + 6, nil
}

func hex4(s string) (uint32, bool) {
	var v uint32
	for i := 0; i < 4; i++ {
		d, ok := hexVal(s[i])
		if !ok {
			return 0, false
		}
		v = (v << 4) | d
	}
	return v, true
}
