package merge

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, row common.Row, keys ...OrderKey) GroupKey {
	t.Helper()
	key, err := ExtractGroupKey(row, keys)
	require.NoError(t, err)
	return key
}

func TestGroupKeyEquality(t *testing.T) {
	keys := []OrderKey{{Index: 0}, {Index: 2}}
	a := extract(t, common.Row{"x", int64(1), int64(10)}, keys...)
	b := extract(t, common.Row{"x", int64(2), decimal.NewFromInt(10)}, keys...)
	c := extract(t, common.Row{"x", int64(1), 10.5}, keys...)
	require.True(t, a.Equal(b))
	require.Equal(t, a.Hash(), b.Hash())
	require.False(t, a.Equal(c))
	require.Equal(t, []common.Value{"x", int64(10)}, a.Values)
}

func TestGroupKeyNulls(t *testing.T) {
	a := extract(t, common.Row{nil, "y"}, OrderKey{Index: 0}, OrderKey{Index: 1})
	b := extract(t, common.Row{nil, "y"}, OrderKey{Index: 0}, OrderKey{Index: 1})
	c := extract(t, common.Row{"y", nil}, OrderKey{Index: 0}, OrderKey{Index: 1})
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestGroupKeyCaseInsensitive(t *testing.T) {
	folded := OrderKey{Index: 0, CaseInsensitive: true}
	require.True(t, extract(t, common.Row{"Apple"}, folded).Equal(extract(t, common.Row{"APPLE"}, folded)))
	exact := OrderKey{Index: 0}
	require.False(t, extract(t, common.Row{"Apple"}, exact).Equal(extract(t, common.Row{"APPLE"}, exact)))
}

func TestGroupKeyNotGroupable(t *testing.T) {
	_, err := ExtractGroupKey(common.Row{map[string]int{}}, []OrderKey{{Index: 0, Label: "attrs"}})
	require.True(t, errors.HasCode(err, errors.NotComparable))
	require.Contains(t, err.Error(), "attrs")
}

func TestGroupMap(t *testing.T) {
	m := newGroupMap()
	keys := []OrderKey{{Index: 0}}
	g1 := &group{key: extract(t, common.Row{int64(1)}, keys...)}
	g2 := &group{key: extract(t, common.Row{"1"}, keys...)}
	m.put(g1)
	m.put(g2)
	require.Equal(t, 2, m.len())
	require.Same(t, g1, m.get(extract(t, common.Row{1.0}, keys...)))
	require.Same(t, g2, m.get(extract(t, common.Row{"1"}, keys...)))
	require.Nil(t, m.get(extract(t, common.Row{int64(2)}, keys...)))
}
