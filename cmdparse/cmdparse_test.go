package cmdparse

import (
	"testing"

	"github.com/opatomic/opago/decimal"
	"github.com/opatomic/opago/so"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, buf []byte) *so.Value {
	t.Helper()
	v, n, err := so.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	return v
}

func TestParseSimpleCommand(t *testing.T) {
	buf, err := ParseNoID(`set foo bar`)
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, so.KindArray, v.Kind)
	require.Len(t, v.Arr, 4)
	require.Equal(t, so.KindNull, v.Arr[0].Kind)
	require.Equal(t, "set", v.Arr[1].Str)
	require.Equal(t, "foo", v.Arr[2].Str)
	require.Equal(t, "bar", v.Arr[3].Str)
}

func TestParseQuotedStringAndBinary(t *testing.T) {
	buf, err := ParseNoID(`cmd "hello world" 'bytes'`)
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, "cmd", v.Arr[1].Str)
	require.Equal(t, "hello world", v.Arr[2].Str)
	require.Equal(t, so.KindBinary, v.Arr[3].Kind)
	require.Equal(t, []byte("bytes"), v.Arr[3].Bin)
}

func TestParseEscapeSequences(t *testing.T) {
	buf, err := ParseNoID(`cmd "a\tb\n\x41B"`)
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, "cmd", v.Arr[1].Str)
	require.Equal(t, "a\tb\nAB", v.Arr[2].Str)
}

func TestParseLiteralUTF8Passthrough(t *testing.T) {
	buf, err := ParseNoID(`cmd "😀"`)
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, "cmd", v.Arr[1].Str)
	require.Equal(t, "\U0001F600", v.Arr[2].Str)
}

func TestParseReservedWords(t *testing.T) {
	buf, err := ParseNoID(`cmd undefined null true false SORTMAX`)
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, "cmd", v.Arr[1].Str)
	require.Equal(t, so.KindUndefined, v.Arr[2].Kind)
	require.Equal(t, so.KindNull, v.Arr[3].Kind)
	require.Equal(t, so.KindTrue, v.Arr[4].Kind)
	require.Equal(t, so.KindFalse, v.Arr[5].Kind)
	require.Equal(t, so.KindSortMax, v.Arr[6].Kind)
}

func TestParseNumbersAndInfinity(t *testing.T) {
	buf, err := ParseNoID(`cmd 42 -3.5 1.2e10 inf -Infinity`)
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, "cmd", v.Arr[1].Str)
	for i := 2; i <= 6; i++ {
		require.Equal(t, so.KindNumber, v.Arr[i].Kind)
	}
	require.Equal(t, "42", v.Arr[2].Num.String())
	require.True(t, !v.Arr[5].Num.IsFinite() && !v.Arr[5].Num.IsNeg())
	require.True(t, !v.Arr[6].Num.IsFinite() && v.Arr[6].Num.IsNeg())
}

func TestParseNestedArrays(t *testing.T) {
	buf, err := ParseNoID(`cmd [1 2 [3 4]] []`)
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, "cmd", v.Arr[1].Str)
	require.Equal(t, so.KindArray, v.Arr[2].Kind)
	require.Len(t, v.Arr[2].Arr, 3)
	require.Equal(t, so.KindArray, v.Arr[2].Arr[2].Kind)
	require.Len(t, v.Arr[2].Arr[2].Arr, 2)
	require.Equal(t, so.KindArray, v.Arr[3].Kind)
	require.Empty(t, v.Arr[3].Arr)
}

func TestParseCommentsIgnored(t *testing.T) {
	buf, err := ParseNoID("cmd 1 // trailing comment\n2 /* block */ 3")
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Len(t, v.Arr, 5)
	require.Equal(t, "cmd", v.Arr[1].Str)
	require.Equal(t, "1", v.Arr[2].Num.String())
	require.Equal(t, "2", v.Arr[3].Num.String())
	require.Equal(t, "3", v.Arr[4].Num.String())
}

func TestParseUnterminatedQuoteFails(t *testing.T) {
	_, err := ParseNoID(`cmd "unterminated`)
	require.Error(t, err)
}

func TestParseUnterminatedBlockCommentFails(t *testing.T) {
	_, err := ParseNoID(`cmd /* unterminated`)
	require.Error(t, err)
}

func TestParseUnbalancedArrayFails(t *testing.T) {
	_, err := ParseNoID(`cmd [1 2`)
	require.Error(t, err)

	_, err = ParseNoID(`cmd 1]`)
	require.Error(t, err)
}

func TestParseBareSlashFails(t *testing.T) {
	_, err := ParseNoID(`cmd a/b`)
	require.Error(t, err)
}

func TestParseWithExplicitAsyncID(t *testing.T) {
	idSO := so.Encode(nil, so.Number(decimal.FromU64(7, false, 0)))
	buf, err := Parse(`sub`, idSO)
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, so.KindNumber, v.Arr[0].Kind)
	require.Equal(t, "7", v.Arr[0].Num.String())
}

func TestStringifyRoundTripsThroughParse(t *testing.T) {
	buf, err := ParseNoID(`cmd "a\"b" 'c\'d' 42 -1.5 [1 2] true null`)
	require.NoError(t, err)
	v := decodeAll(t, buf)
	for i, text := range []string{`"a\"b"`, `'c\'d'`, "42", "-1.5", "[1,2]", "true", "null"} {
		require.Equal(t, text, Stringify(v.Arr[i+2], ""))
	}
	for _, want := range []struct {
		v    *so.Value
		text string
	}{
		{so.String("plain"), `"plain"`},
		{so.String("a\"b\nc"), "\"a\\\"b\\nc\""},
		{so.Binary([]byte("x'y")), `'x\'y'`},
		{so.Undefined(), "undefined"},
		{so.Null(), "null"},
		{so.Bool(true), "true"},
		{so.Bool(false), "false"},
		{so.SortMax(), "SORTMAX"},
		{so.Array(nil), "[]"},
	} {
		require.Equal(t, want.text, Stringify(want.v, ""))
	}
	require.Equal(t, "cmd", v.Arr[1].Str)
}

func TestStringifyEscapesInvalidUTF8InBinary(t *testing.T) {
	got := Stringify(so.Binary([]byte{'a', 0xff, 'b'}), "")
	require.Equal(t, `'a\xFFb'`, got)
}

func TestStringifyIndentsNestedArrays(t *testing.T) {
	v := so.Array([]*so.Value{so.Number(decimal.FromU64(1, false, 0)), so.Number(decimal.FromU64(2, false, 0))})
	got := Stringify(v, "  ")
	require.Equal(t, "[\n  1,\n  2\n]", got)
}
