package decimal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextFormatWindow(t *testing.T) {
	// significand 210 across exponents -10..10 (spec §8 scenario 4), with
	// the duplicate-valued entry at exp=-8 resolved to its plain-notation
	// rendering and the list extended to the missing exp=10 entry. The
	// upper bound (exp=5,6 still plain) follows spec §4.4 branch 1 and
	// opabigdecToString's raw-exponent OPABIGDEC_MAXSTRZS check; see the
	// String doc comment and DESIGN.md for the derivation.
	cases := []struct {
		exp  int32
		want string
	}{
		{-10, "2.1E-8"},
		{-9, "2.1E-7"},
		{-8, "0.0000021"},
		{-7, "0.000021"},
		{-6, "0.00021"},
		{-5, "0.0021"},
		{-4, "0.021"},
		{-3, "0.21"},
		{-2, "2.1"},
		{-1, "21"},
		{0, "210"},
		{1, "2100"},
		{2, "21000"},
		{3, "210000"},
		{4, "2100000"},
		{5, "21000000"},
		{6, "210000000"},
		{7, "2.1E+9"},
		{8, "2.1E+10"},
		{9, "2.1E+11"},
		{10, "2.1E+12"},
	}
	for _, c := range cases {
		d := FromU64(210, false, c.exp)
		require.Equal(t, c.want, d.String(), "exp=%d", c.exp)
	}
}

func TestTextFormatUpperBoundUsesRawExponent(t *testing.T) {
	// A 5-digit significand has a larger adjusted exponent than a
	// 3-digit one at the same raw exponent; the upper plain/scientific
	// gate must still key off the raw exponent (exp<=6), not the
	// adjusted one, or this renders scientific instead of plain.
	d := FromU64(12345, false, 3)
	require.Equal(t, "12345000", d.String())
}

func TestParseTextRoundTrip(t *testing.T) {
	d, err := ParseText("1.25e-3")
	require.NoError(t, err)
	require.Equal(t, "0.00125", d.String())
}

func TestParseTextRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "1.2.3", "1e", "."} {
		_, err := ParseText(s)
		require.Error(t, err, s)
	}
}

func TestInfinityTextRoundTrip(t *testing.T) {
	d, err := ParseText("-Infinity")
	require.NoError(t, err)
	require.True(t, d.IsNeg())
	require.False(t, d.IsFinite())
	require.Equal(t, "-inf", d.String())
}

func TestSOLoadStoreRoundTrip125em3(t *testing.T) {
	// spec §8 scenario 2: "1.25e-3" -> ['I', 0x05, 0x7D]
	d, err := ParseText("1.25e-3")
	require.NoError(t, err)
	buf := d.AppendSO(nil)
	require.Equal(t, []byte{'I', 0x05, 0x7D}, buf)

	loaded, n, err := LoadSO(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, "0.00125", loaded.String())
}

func TestSOLoadStoreRoundTripVarious(t *testing.T) {
	samples := []*Decimal{
		Zero(),
		Inf(false),
		Inf(true),
		FromU64(0, false, 0),
		FromU64(5, false, 0),
		FromU64(5, true, 0),
		FromU64(210, false, 3),
		FromU64(210, true, -4),
	}
	for _, d := range samples {
		buf := d.AppendSO(nil)
		loaded, n, err := LoadSO(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, d.String(), loaded.String())
	}
}

func TestSOLoadStoreBigint(t *testing.T) {
	big, err := ParseText("123456789012345678901234567890")
	require.NoError(t, err)
	buf := big.AppendSO(nil)
	require.Equal(t, byte('K'), buf[0])
	loaded, n, err := LoadSO(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, big.String(), loaded.String())
}

func TestAddSubMul(t *testing.T) {
	a, _ := ParseText("1.5")
	b, _ := ParseText("0.25")
	sum, err := Add(a, b)
	require.NoError(t, err)
	require.Equal(t, "1.75", sum.String())

	diff, err := Sub(a, b)
	require.NoError(t, err)
	require.Equal(t, "1.25", diff.String())

	prod, err := Mul(a, b)
	require.NoError(t, err)
	require.Equal(t, "0.375", prod.String())
}

func TestAddInfinityMismatchOverflows(t *testing.T) {
	_, err := Add(Inf(false), Inf(true))
	require.Error(t, err)
}

func TestGetMagU64(t *testing.T) {
	d := FromU64(1250, false, -1)
	v, err := d.GetMagU64()
	require.NoError(t, err)
	require.EqualValues(t, 125, v)

	_, err = FromU64(125, false, -1).GetMagU64()
	require.Error(t, err)
}

func TestExtendPreservesValue(t *testing.T) {
	d := FromU64(21, false, 1)
	ext, err := d.Extend(3)
	require.NoError(t, err)
	require.Equal(t, d.String(), ext.String())
	require.EqualValues(t, -2, ext.Exp())
}
