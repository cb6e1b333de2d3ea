// Package cmdparse implements the human command-line tokenizer (spec
// C11): it reads a single typed command line (quoted strings/binaries,
// comments, nested arrays, bareword tokens) and drives a reqbuilder into
// a complete, ready-to-send request.
package cmdparse

import (
	"strings"

	"github.com/opatomic/opago/opaerr"
	"github.com/opatomic/opago/reqbuilder"
)

// Parse tokenizes s and builds a complete request using asyncID as the
// request's id slot (e.g. reqbuilder.NullAsyncID() for a command typed at
// an interactive prompt with no response tracking wanted). Grounded on
// oparbParseUserCommandWithId: quoted runs become strings ('"') or
// binaries ('\''), "//" and "/*...*/" introduce comments, '[' and ']'
// nest arrays, commas/whitespace separate tokens, and anything else is
// read as a bareword token that converts to a reserved word, a number,
// or a plain string.
func Parse(s string, asyncID []byte) ([]byte, error) {
	b := reqbuilder.New(asyncID)
	depth := 0
	i := 0
	for i < len(s) {
		ch := s[i]
		switch {
		case ch == '"' || ch == '\'':
			end, ok := findQuoteEnd(s, i+1, ch)
			if !ok {
				return nil, opaerr.New(opaerr.Parse, "cmdparse: string or bin end char not found")
			}
			if err := addQuoted(b, s[i+1:end], ch == '\''); err != nil {
				return nil, err
			}
			i = end + 1
		case ch == '/':
			next, err := skipComment(s, i)
			if err != nil {
				return nil, err
			}
			i = next
		case ch == '[':
			b.StartArray()
			depth++
			i++
		case ch == ']':
			if depth <= 0 {
				return nil, opaerr.New(opaerr.Parse, "cmdparse: extra array end token ']'")
			}
			b.StopArray()
			depth--
			i++
		case ch == ',' || ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			i++
		default:
			end := findTokenEnd(s, i)
			if end == i {
				return nil, opaerr.New(opaerr.Parse, "cmdparse: reserved/special/control characters must be inside quotes or escaped")
			}
			if err := addToken(b, s[i:end]); err != nil {
				return nil, err
			}
			i = end
		}
	}
	if depth > 0 {
		return nil, opaerr.New(opaerr.Parse, "cmdparse: array end token ']' not found")
	}
	return b.Finish()
}

// ParseNoID tokenizes s as a fire-and-forget request with a NULL id slot,
// the shape oparbParseUserCommand builds for a bare interactive command.
func ParseNoID(s string) ([]byte, error) {
	return Parse(s, reqbuilder.NullAsyncID())
}

func addQuoted(b *reqbuilder.Builder, raw string, isBin bool) error {
	unescaped, err := unescape(raw)
	if err != nil {
		return err
	}
	if isBin {
		b.AddBin([]byte(unescaped))
	} else {
		b.AddStr(unescaped)
	}
	return nil
}

// addToken converts one bareword token: the reserved words (undefined,
// null, true, false, SORTMAX), a number or signed/unsigned infinity
// (both routed through AddNumStr — decimal.ParseText already accepts
// "inf"/"infinity" case-insensitively and AppendSO already renders it as
// the NEGINF/POSINF tag, so there is no separate infinity path the way
// oparbConvertToken has one), or else a plain unescaped string.
func addToken(b *reqbuilder.Builder, raw string) error {
	if fn, ok := specialToken(raw); ok {
		fn(b)
		return nil
	}
	if isNumToken(raw) || isInfToken(raw) {
		b.AddNumStr(raw)
		return b.Err()
	}
	unescaped, err := unescape(raw)
	if err != nil {
		return err
	}
	b.AddStr(unescaped)
	return nil
}

// findQuoteEnd returns the index of the closing quote matching ch,
// starting the scan at pos (just past the opening quote). A backslash
// escapes the next byte, including another quote char, so a quoted
// token can contain its own delimiter.
func findQuoteEnd(s string, pos int, ch byte) (int, bool) {
	for pos < len(s) {
		switch s[pos] {
		case ch:
			return pos, true
		case '\\':
			pos++
			if pos >= len(s) {
				return 0, false
			}
		}
		pos++
	}
	return 0, false
}

// findTokenEnd returns the index just past the bareword token starting
// at pos: letters, digits, '_', '.', '-', '+', any non-ASCII byte (a
// UTF-8 continuation/lead byte), or a backslash-escaped byte extend the
// token; anything else ends it.
func findTokenEnd(s string, pos int) int {
	for pos < len(s) {
		ch := s[pos]
		switch {
		case isAlphaNum(ch) || ch >= 0x80 || ch == '_' || ch == '.' || ch == '-' || ch == '+':
			pos++
		case ch == '\\' && pos+1 < len(s):
			pos += 2
		default:
			return pos
		}
	}
	return pos
}

// skipComment advances past a "//..." line comment or a "/*...*/" block
// comment starting at s[pos] (pointing at the '/'), returning the index
// to resume tokenizing from.
func skipComment(s string, pos int) (int, error) {
	if pos+1 >= len(s) {
		return 0, opaerr.New(opaerr.Parse, "cmdparse: the / character must be inside quotes, escaped, or used as comment")
	}
	switch s[pos+1] {
	case '/':
		if nl := strings.IndexByte(s[pos+2:], '\n'); nl >= 0 {
			return pos + 2 + nl + 1, nil
		}
		return len(s), nil
	case '*':
		if end := strings.Index(s[pos+2:], "*/"); end >= 0 {
			return pos + 2 + end + 2, nil
		}
		return 0, opaerr.New(opaerr.Parse, `cmdparse: end of comment "*/" not found`)
	default:
		return 0, opaerr.New(opaerr.Parse, "cmdparse: the / character must be inside quotes, escaped, or used as comment")
	}
}
