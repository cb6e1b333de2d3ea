package cmdparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnescapeSimpleControlChars(t *testing.T) {
	got, err := unescape(`a\tb\nc\r\b\f`)
	require.NoError(t, err)
	require.Equal(t, "a\tb\nc\r\b\f", got)
}

func TestUnescapeHexByte(t *testing.T) {
	got, err := unescape(`\x41\x42`)
	require.NoError(t, err)
	require.Equal(t, "AB", got)
}

func TestUnescapeUnicodeEscape(t *testing.T) {
	got, err := unescape(`\u0041\u00e9`)
	require.NoError(t, err)
	require.Equal(t, "A\u00e9", got)
}

func TestUnescapeSurrogatePair(t *testing.T) {
	got, err := unescape("\\uD83D\\uDE00")
	require.NoError(t, err)
	require.Equal(t, "\U0001F600", got)
}

func TestUnescapeUnpairedLowSurrogateFails(t *testing.T) {
	_, err := unescape(`\uDE00`)
	require.Error(t, err)
}

func TestUnescapeMissingLowSurrogateFails(t *testing.T) {
	_, err := unescape(`\uD83Dx`)
	require.Error(t, err)
}

func TestUnescapePassesThroughUnknownEscapedChar(t *testing.T) {
	got, err := unescape(`\/`)
	require.NoError(t, err)
	require.Equal(t, "/", got)
}

func TestUnescapeRejectsInvalidEscapeChar(t *testing.T) {
	_, err := unescape("\\\x01")
	require.Error(t, err)
}

func TestIsNumTokenAcceptsVariousShapes(t *testing.T) {
	for _, s := range []string{"0", "-0", "42", "-3.5", "1.2e10", "1E-3", "1e+3"} {
		require.True(t, isNumToken(s), s)
	}
	for _, s := range []string{"", "-", "abc", "1.2.3", "1e", "1e+", "."} {
		require.False(t, isNumToken(s), s)
	}
}

func TestIsInfTokenAcceptsSignedAndUnsigned(t *testing.T) {
	for _, s := range []string{"inf", "Inf", "INFINITY", "-inf", "+Infinity", "-Infinity"} {
		require.True(t, isInfToken(s), s)
	}
	for _, s := range []string{"infi", "information", "42"} {
		require.False(t, isInfToken(s), s)
	}
}
