package varint

import (
	"testing"

	"github.com/opatomic/opago/opaerr"
	"github.com/stretchr/testify/require"
)

func TestRoundTripEdges(t *testing.T) {
	cases := []struct {
		v    uint64
		n    int
	}{
		{0, 1},
		{1, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{1<<63 - 1, 9},
		{1<<64 - 1, 10},
	}
	for _, c := range cases {
		enc := Encode(nil, c.v)
		require.Equal(t, c.n, len(enc), "len(encode(%d))", c.v)
		require.Equal(t, c.n, Len(c.v))
		got, n, err := Decode(enc)
		require.NoError(t, err)
		require.Equal(t, c.n, n)
		require.Equal(t, c.v, got)
	}
}

func TestDecodeIncomplete(t *testing.T) {
	_, _, err := Decode([]byte{0x80, 0x80})
	require.Error(t, err)
	require.True(t, opaerr.Is(err, opaerr.Eof))
}

func TestDecodeNonCanonicalTrailingZero(t *testing.T) {
	_, _, err := Decode([]byte{0x80, 0x00})
	require.Error(t, err)
	require.True(t, opaerr.Is(err, opaerr.Parse))
}

func TestDecode10thByteOverflow(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x02}
	_, _, err := Decode(buf)
	require.Error(t, err)
	require.True(t, opaerr.Is(err, opaerr.Parse))
}

func TestDecode10thByteTrailingZeroRejected(t *testing.T) {
	// Nine continuation-bit-set bytes followed by a zero 10th byte: every
	// byte but the first 9 is canonical-looking on its own, but the
	// trailing zero could have been omitted, so the whole encoding is
	// non-canonical and must be rejected the same way a short trailing
	// zero byte is.
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
	_, _, err := Decode(buf)
	require.Error(t, err)
	require.True(t, opaerr.Is(err, opaerr.Parse))
}

func TestDecodeFullTrailingBytes(t *testing.T) {
	_, err := DecodeFull([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestPutBuf(t *testing.T) {
	buf := make([]byte, MaxLen)
	n := PutBuf(buf, 300)
	require.Equal(t, Len(300), n)
	got, m, err := Decode(buf[:n])
	require.NoError(t, err)
	require.Equal(t, n, m)
	require.EqualValues(t, 300, got)
}
