package so

import (
	"testing"

	"github.com/opatomic/opago/decimal"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v *Value) *Value {
	t.Helper()
	buf := Encode(nil, v)
	n, err := Len(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	got, n2, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n2)
	return got
}

func TestSentinelsRoundTrip(t *testing.T) {
	cases := []*Value{Undefined(), Null(), Bool(true), Bool(false), SortMax()}
	for _, v := range cases {
		got := roundTrip(t, v)
		require.Equal(t, v.Kind, got.Kind)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "hello", "日本語", "a\x00b"} {
		got := roundTrip(t, String(s))
		require.Equal(t, KindString, got.Kind)
		require.Equal(t, s, got.Str)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, b := range [][]byte{nil, {1, 2, 3}, make([]byte, 300)} {
		got := roundTrip(t, Binary(b))
		require.Equal(t, KindBinary, got.Kind)
		require.Equal(t, len(b), len(got.Bin))
	}
}

func TestArrayRoundTrip(t *testing.T) {
	nested := Array([]*Value{String("a"), Number(decimal.FromU64(5, false, 0))})
	outer := Array([]*Value{nested, Null(), Array(nil)})
	got := roundTrip(t, outer)
	require.Equal(t, KindArray, got.Kind)
	require.Len(t, got.Arr, 3)
	require.Equal(t, KindArray, got.Arr[0].Kind)
	require.Len(t, got.Arr[0].Arr, 2)
	require.Equal(t, "a", got.Arr[0].Arr[0].Str)
	require.Equal(t, KindArray, got.Arr[2].Kind)
	require.Empty(t, got.Arr[2].Arr)
}

func TestNumberRoundTrip(t *testing.T) {
	d, err := decimal.ParseText("1.25e-3")
	require.NoError(t, err)
	got := roundTrip(t, Number(d))
	require.Equal(t, KindNumber, got.Kind)
	require.Equal(t, d.String(), got.Num.String())
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	buf := []byte{'S', 0x02, 0xFF, 0xFF}
	_, _, err := Decode(buf)
	require.Error(t, err)
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	_, _, err := Decode([]byte{0x00})
	require.Error(t, err)
}

func TestDecodeRejectsUnterminatedArray(t *testing.T) {
	buf := []byte{'[', 'N'}
	_, _, err := Decode(buf)
	require.Error(t, err)
}

func TestLenOnArray(t *testing.T) {
	v := Array([]*Value{String("abc"), Number(decimal.Zero())})
	buf := Encode(nil, v)
	extra := append(append([]byte{}, buf...), 0xAA, 0xBB)
	n, err := Len(extra)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
}
