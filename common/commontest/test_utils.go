package commontest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/squareup/shardmerge/common"
	"github.com/stretchr/testify/require"
)

// Test utils
// These live in a non test file so they can be shared by the tests of other packages

// Dec parses a decimal literal, failing the test if it is malformed.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// AllRowsEqual compares rows value by value. Numerics are compared by value so an int64 10 matches a decimal 10.00.
func AllRowsEqual(t *testing.T, expected []common.Row, actual []common.Row) {
	t.Helper()
	require.Equal(t, len(expected), len(actual), "row count differs, expected %v actual %v", expected, actual)
	for i := range expected {
		RowsEqual(t, expected[i], actual[i])
	}
}

func RowsEqual(t *testing.T, expected common.Row, actual common.Row) {
	t.Helper()
	require.Equal(t, expected.ColCount(), actual.ColCount(), "expected %v actual %v", expected, actual)
	for colIndex := range expected {
		ValuesEqual(t, expected[colIndex], actual[colIndex])
	}
}

func ValuesEqual(t *testing.T, expected common.Value, actual common.Value) {
	t.Helper()
	if expected == nil || actual == nil {
		require.Nil(t, expected, "expected %v actual %v", expected, actual)
		require.Nil(t, actual, "expected %v actual %v", expected, actual)
		return
	}
	res, ok := common.Compare(expected, actual)
	require.True(t, ok, "cannot compare %v with %v", expected, actual)
	require.Equal(t, 0, res, "expected %v actual %v", expected, actual)
}
