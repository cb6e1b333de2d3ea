package reqbuilder

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

func TestBuildsSimpleRequest(t *testing.T) {
	b := New(NullAsyncID())
	b.AddStr("ping")
	buf, err := b.Finish()
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, so.KindArray, v.Kind)
	require.Len(t, v.Arr, 2)
	require.Equal(t, so.KindNull, v.Arr[0].Kind)
	require.Equal(t, "ping", v.Arr[1].Str)
}

func TestAddIntegersRouteByMagnitude(t *testing.T) {
	b := New(NullAsyncID())
	b.AddInt64(0)
	b.AddInt64(-5)
	b.AddUint64(5)
	b.AddInt64(int64(-9223372036854775808))
	buf, err := b.Finish()
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Len(t, v.Arr, 5)
	require.Equal(t, "0", v.Arr[1].Num.String())
	require.Equal(t, "-5", v.Arr[2].Num.String())
	require.Equal(t, "5", v.Arr[3].Num.String())
	require.Equal(t, "-9223372036854775808", v.Arr[4].Num.String())
}

func TestAddNumStrPreservesNegativeZeroSign(t *testing.T) {
	cases := []struct {
		in      string
		wantTag byte
	}{
		{"-0", byte('E')},
	}
	for _, c := range cases {
		b := New(NullAsyncID())
		b.AddNumStr(c.in)
		buf, err := b.Finish()
		require.NoError(t, err)
		v := decodeAll(t, buf)
		require.Equal(t, "0", v.Arr[1].Num.String())
		// the raw wire tag for the arg must be NEGVARINT, not ZERO, to
		// preserve the textual negative sign.
		idLen := 1
		require.Equal(t, c.wantTag, buf[1+idLen])
	}
}

func TestAddNumStrNegativeZeroWithExponent(t *testing.T) {
	b := New(NullAsyncID())
	b.AddNumStr("-0.00")
	buf, err := b.Finish()
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, "0", v.Arr[1].Num.String())
	// tag must be NEGNEGVARDEC ('J'): negative exponent, negative mantissa sign.
	require.Equal(t, byte('J'), buf[2])
}

func TestAddSOAppendsRawPreEncodedValue(t *testing.T) {
	raw := so.Encode(nil, so.String("hi"))
	b := New(NullAsyncID())
	b.AddSO(raw)
	buf, err := b.Finish()
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, "hi", v.Arr[1].Str)
}

func TestNestedArrayElidesToArrayEmpty(t *testing.T) {
	b := New(NullAsyncID())
	b.StartArray()
	b.StopArray()
	buf, err := b.Finish()
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, so.KindArray, v.Arr[1].Kind)
	require.Empty(t, v.Arr[1].Arr)
}

func TestNestedArrayWithElements(t *testing.T) {
	b := New(NullAsyncID())
	b.StartArray()
	b.AddInt64(1)
	b.AddInt64(2)
	b.StopArray()
	buf, err := b.Finish()
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Len(t, v.Arr[1].Arr, 2)
}

func TestFinishRejectsUnbalancedNesting(t *testing.T) {
	b := New(NullAsyncID())
	b.AddStr("cmd")
	b.StartArray()
	_, err := b.Finish()
	require.Error(t, err)
}

func TestFinishRejectsEmptyRequest(t *testing.T) {
	b := New(NullAsyncID())
	_, err := b.Finish()
	require.Error(t, err)
}

func TestStopArrayWithoutStartFails(t *testing.T) {
	b := New(NullAsyncID())
	b.AddStr("cmd")
	b.StopArray()
	_, err := b.Finish()
	require.Error(t, err)
}

func TestAddBigDecAndBin(t *testing.T) {
	d, err := decimal.ParseText("1.25e-3")
	require.NoError(t, err)
	b := New(NullAsyncID())
	b.AddBigDec(d)
	b.AddBin([]byte{1, 2, 3})
	buf, err := b.Finish()
	require.NoError(t, err)
	v := decodeAll(t, buf)
	require.Equal(t, "0.00125", v.Arr[1].Num.String())
	require.Equal(t, []byte{1, 2, 3}, v.Arr[2].Bin)
}

func TestErrorIsSticky(t *testing.T) {
	b := New(NullAsyncID())
	b.AddNumStr("not-a-number")
	require.Error(t, b.Err())
	b.AddStr("ignored")
	_, err := b.Finish()
	require.Error(t, err)
}
