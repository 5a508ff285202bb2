package pagination

import (
	"testing"

	"github.com/alecthomas/repr"
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		text     string
		expected Segment
	}{
		{"LIMIT 10", &LimitSegment{RowCount: lit(10)}},
		{"limit 4, 3", &LimitSegment{Offset: lit(4), RowCount: lit(3)}},
		{"LIMIT 3 OFFSET 4", &LimitSegment{Offset: lit(4), RowCount: lit(3)}},
		{"LIMIT ? OFFSET ?", &LimitSegment{RowCount: param(0), Offset: param(1)}},
		{"LIMIT ?, ?", &LimitSegment{Offset: param(0), RowCount: param(1)}},
		{"OFFSET 5", &LimitSegment{Offset: lit(5)}},
		{"OFFSET ? LIMIT 2", &LimitSegment{Offset: param(0), RowCount: lit(2)}},
		{"TOP 10", &TopSegment{RowCount: lit(10), RowNumberAlias: DefaultRowNumberAlias}},
		{"TOP ? WHERE rownum > ?", &TopSegment{RowCount: param(0), RowNumberAlias: DefaultRowNumberAlias,
			Predicate: cmp(col("rownum"), OpGt, param(1))}},
		{"WHERE ROWNUM <= 10", &RowNumberSegment{Alias: DefaultRowNumberAlias,
			Predicate: cmp(col("ROWNUM"), OpLtEq, lit(10))}},
		{"WHERE a = 1 AND (ROWNUM > 2 AND ROWNUM < 6)", &RowNumberSegment{Alias: DefaultRowNumberAlias,
			Predicate: and(cmp(col("a"), OpEq, lit(1)), and(cmp(col("ROWNUM"), OpGt, lit(2)), cmp(col("ROWNUM"), OpLt, lit(6))))}},
		{"WHERE ROWNUM > 1 OR b != 2", &RowNumberSegment{Alias: DefaultRowNumberAlias,
			Predicate: &OrExpr{Left: cmp(col("ROWNUM"), OpGt, lit(1)), Right: cmp(col("b"), OpNotEq, lit(2))}}},
	}
	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			seg, err := Parse(c.text)
			require.NoError(t, err)
			require.Equal(t, c.expected, seg, "expected\n%s\ngot\n%s",
				repr.String(c.expected, repr.Indent("  ")),
				repr.String(seg, repr.Indent("  ")))
		})
	}
}

func TestParseThenResolve(t *testing.T) {
	seg, err := ParseWithAlias("TOP 10 WHERE row_ > 4", "ROW_")
	require.NoError(t, err)
	w, err := Resolve(seg, nil)
	require.NoError(t, err)
	require.Equal(t, Window{4, 6}, w)

	seg, err = Parse("WHERE ROWNUM >= ? AND ROWNUM <= ?")
	require.NoError(t, err)
	w, err = Resolve(seg, []common.Value{int64(3), int64(8)})
	require.NoError(t, err)
	require.Equal(t, Window{2, 6}, w)
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{"", "LIMIT", "LIMIT x", "LIMIT 1 2", "TOP", "WHERE ROWNUM", "FETCH FIRST 3 ROWS"} {
		_, err := Parse(text)
		require.Error(t, err, text)
		require.True(t, errors.HasCode(err, errors.MalformedPagination), text)
	}
}

func TestSegmentString(t *testing.T) {
	seg, err := Parse("LIMIT ? OFFSET 3")
	require.NoError(t, err)
	require.Equal(t, "LIMIT ?0 OFFSET 3", seg.String())
	seg, err = Parse("TOP 5 WHERE ROWNUM > 1 AND x = 2")
	require.NoError(t, err)
	require.Equal(t, "TOP 5 WHERE (ROWNUM > 1 AND x = 2)", seg.String())
}
