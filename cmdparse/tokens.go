package cmdparse

import (
	"strings"

	"github.com/opatomic/opago/reqbuilder"
)

// isNumToken reports whether s has the shape opaIsNumStr accepts: an
// optional leading '-', at least one digit, then any mix of digits with
// at most one '.' (before a possible exponent) and at most one e/E
// exponent marker (itself optionally signed, and itself requiring at
// least one trailing digit).
func isNumToken(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i >= len(s) || !isDigit(s[i]) {
		return false
	}
	i++
	seenExp := false
	seenDot := false
	for i < len(s) {
		ch := s[i]
		if isDigit(ch) {
			i++
			continue
		}
		if !seenExp && (ch == 'e' || ch == 'E') {
			seenExp = true
			i++
			if i < len(s) && (s[i] == '-' || s[i] == '+') {
				i++
			}
			if i >= len(s) {
				return false
			}
			continue
		}
		if !seenExp && !seenDot && ch == '.' {
			seenDot = true
			i++
			if i >= len(s) {
				return false
			}
			continue
		}
		return false
	}
	return true
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

// isInfToken reports whether s is a signed or unsigned spelling of "inf"
// or "infinity", matched case-insensitively, per opaIsInfStr.
func isInfToken(s string) bool {
	body := s
	switch len(s) {
	case 4, 9:
		if s[0] != '-' && s[0] != '+' {
			return false
		}
		body = s[1:]
	case 3, 8:
	default:
		return false
	}
	lower := strings.ToLower(body)
	return lower == "inf" || lower == "infinity"
}

// specialToken maps a reserved unquoted word to the builder call that
// appends its sentinel value. Returns ok=false for anything else (a
// number, or a plain string token).
func specialToken(s string) (func(b *reqbuilder.Builder), bool) {
	switch s {
	case "undefined":
		return (*reqbuilder.Builder).AddUndefined, true
	case "null":
		return (*reqbuilder.Builder).AddNull, true
	case "false":
		return func(b *reqbuilder.Builder) { b.AddBool(false) }, true
	case "true":
		return func(b *reqbuilder.Builder) { b.AddBool(true) }, true
	case "SORTMAX":
		return (*reqbuilder.Builder).AddSortMax, true
	default:
		return nil, false
	}
}
