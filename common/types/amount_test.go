package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = ParseUnits("0.000001", 6)
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())

	v, err = ParseUnits("42", 6)
	require.NoError(t, err)
	assert.Equal(t, "42000000", v.String())

	// Exactness: a value that would lose precision as a float64.
	v, err = ParseUnits("0.123456789012345678", 18)
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678", v.String())
}

func TestParseUnitsRejectsExcessPrecision(t *testing.T) {
	_, err := ParseUnits("0.1234567", 6)
	assert.Error(t, err)
}

func TestParseUnitsRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", ".", "1,5", "abc", "1.2.3"} {
		_, err := ParseUnits(bad, 18)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseUnitsNegative(t *testing.T) {
	v, err := ParseUnits("-2.5", 18)
	require.NoError(t, err)
	assert.Equal(t, -1, v.Sign())
}

func TestFormatUnits(t *testing.T) {
	v, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", FormatUnits(v, 18))

	assert.Equal(t, "0.000001", FormatUnits(big.NewInt(1), 6))
	assert.Equal(t, "42", FormatUnits(big.NewInt(42000000), 6))
	assert.Equal(t, "0", FormatUnits(nil, 18))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"1.5", "0.000001", "42", "123456.789"} {
		v, err := ParseUnits(s, 6)
		require.NoError(t, err)
		assert.Equal(t, s, FormatUnits(v, 6))
	}
}
