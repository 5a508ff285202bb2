package common

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, fold bool, values ...Value) []byte {
	t.Helper()
	var buff []byte
	for _, v := range values {
		var ok bool
		buff, ok = KeyEncodeValue(buff, v, fold)
		require.True(t, ok)
	}
	return buff
}

func TestKeyEncodeNumericsEqualByValue(t *testing.T) {
	one := encode(t, false, int64(1))
	require.Equal(t, one, encode(t, false, 1.0))
	require.Equal(t, one, encode(t, false, dec(t, "1.00")))
	require.Equal(t, one, encode(t, false, int8(1)))
	require.NotEqual(t, one, encode(t, false, "1"))

	half := encode(t, false, 0.5)
	require.Equal(t, half, encode(t, false, dec(t, "0.500")))
	require.NotEqual(t, half, one)
}

func TestKeyEncodeFold(t *testing.T) {
	require.Equal(t, encode(t, true, "Hello"), encode(t, true, "hELLO"))
	require.NotEqual(t, encode(t, false, "Hello"), encode(t, false, "hELLO"))
}

func TestKeyEncodeNoPrefixCollision(t *testing.T) {
	require.NotEqual(t, encode(t, false, "ab", "c"), encode(t, false, "a", "bc"))
	require.NotEqual(t, encode(t, false, nil, "a"), encode(t, false, "a", nil))
}

func TestKeyEncodeOtherTypes(t *testing.T) {
	ts := time.Date(2021, 3, 4, 5, 6, 7, 8, time.UTC)
	require.Equal(t, encode(t, false, ts), encode(t, false, ts.In(time.FixedZone("x", 3600))))
	require.NotEqual(t, encode(t, false, true), encode(t, false, false))
	require.NotEqual(t, encode(t, false, math.Inf(1)), encode(t, false, math.Inf(-1)))
	require.NotEqual(t, encode(t, false, []byte("a")), encode(t, false, "a"))

	_, ok := KeyEncodeValue(nil, struct{}{}, false)
	require.False(t, ok)
}
