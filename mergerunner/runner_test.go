package mergerunner

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/squareup/shardmerge/conf"
	"github.com/squareup/shardmerge/errors"
	"github.com/squareup/shardmerge/merge"
	"github.com/stretchr/testify/require"
)

const avgCase = `
{
  "name": "average price per category",
  "columns": ["category", "avg_price"],
  // shards return the derived sum and count after the visible columns
  "shards": [
    [["books", 10, 30, 3], ["toys", 2.5, 5, 2]],
    [["books", 25, 50, 2]],
    []
  ],
  "group_by": [{"column": "category"}],
  "order_by": [{"column": "avg_price", "desc": true}],
  "aggregations": [{"kind": "avg", "output": 1, "sources": [2, 3], "label": "avg_price"}],
  /* skip nothing, keep everything */
  "pagination": "LIMIT ?",
  "params": [10]
}
`

func writeCase(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(contents), 0600))
	return path
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	e, err := merge.NewEngine(*conf.NewTestConfig(), nil)
	require.NoError(t, err)
	return NewRunner(e)
}

func TestLoadCase(t *testing.T) {
	c, err := LoadCase(writeCase(t, avgCase))
	require.NoError(t, err)
	require.Equal(t, "average price per category", c.Name)
	require.Equal(t, 4, c.width())
	require.Len(t, c.Shards, 3)
	require.Equal(t, []interface{}{"books", int64(10), int64(30), int64(3)}, c.Shards[0][0])
	require.True(t, decimal.RequireFromString("2.5").Equal(c.Shards[0][1][1].(decimal.Decimal)))
	require.Equal(t, []interface{}{int64(10)}, c.Params)

	stmt, err := c.Statement()
	require.NoError(t, err)
	require.Len(t, stmt.Aggregations, 1)
	require.Equal(t, "AVG", stmt.Aggregations[0].Kind.String())
	require.Equal(t, merge.Descending, stmt.OrderBy[0].Direction)
	require.Equal(t, merge.NullsFirst, stmt.OrderBy[0].NullOrder)
	require.NotNil(t, stmt.Pagination)
}

func TestRunCase(t *testing.T) {
	c, err := LoadCase(writeCase(t, avgCase))
	require.NoError(t, err)
	out := &bytes.Buffer{}
	rows, err := newTestRunner(t).Run(context.Background(), c, out)
	require.NoError(t, err)
	require.Equal(t, 2, rows)
	require.Equal(t, "[\"books\",16]\n[\"toys\",2.5]\n", out.String())
}

func TestRunCaseWithPagination(t *testing.T) {
	c, err := ParseCase([]byte(`{
	  "columns": ["id"],
	  "shards": [[[1], [4], [5]], [[2], [3], [null]]],
	  "order_by": [{"index": 0, "nulls": "last"}],
	  "pagination": "LIMIT 2 OFFSET 3"
	}`))
	require.NoError(t, err)
	out := &bytes.Buffer{}
	rows, err := newTestRunner(t).Run(context.Background(), c, out)
	require.NoError(t, err)
	require.Equal(t, 2, rows)
	require.Equal(t, "[4]\n[5]\n", out.String())
}

func TestRunCaseSingleShard(t *testing.T) {
	const single = `{
	  "columns": ["id"],
	  "shards": [[[1], [2], [3], [5]]],
	  "order_by": [{"index": 0}],
	  "pagination": "LIMIT 2"
	  %s
	}`
	r := newTestRunner(t)
	c, err := ParseCase([]byte(fmt.Sprintf(single, "")))
	require.NoError(t, err)
	out := &bytes.Buffer{}
	_, err = r.Run(context.Background(), c, out)
	require.NoError(t, err)
	require.Equal(t, "[1]\n[2]\n", out.String())

	c, err = ParseCase([]byte(fmt.Sprintf(single, `, "single_route_unrewritten": true`)))
	require.NoError(t, err)
	out.Reset()
	rows, err := r.Run(context.Background(), c, out)
	require.NoError(t, err)
	require.Equal(t, 4, rows)
	require.Equal(t, "[1]\n[2]\n[3]\n[5]\n", out.String())
}

func TestRunCaseErrors(t *testing.T) {
	r := newTestRunner(t)
	cases := []struct {
		json string
		code errors.ErrorCode
	}{
		{`{"columns": ["a"], "shards": [[[1]], [[2]]], "order_by": [{"column": "b"}]}`, errors.UnknownColumn},
		{`{"columns": ["a"], "shards": [[[1]], [[2]]], "aggregations": [{"kind": "median"}]}`, errors.UnsupportedAggregation},
		{`{"columns": ["a"], "shards": [[[1]], [[2]]], "pagination": "LIMIT LIMIT"}`, errors.MalformedPagination},
		{`{"columns": ["a"], "shards": [[[1]], [["x"]]], "order_by": [{"index": 0}]}`, errors.NotComparable},
	}
	for _, c := range cases {
		mc, err := ParseCase([]byte(c.json))
		require.NoError(t, err)
		_, err = r.Run(context.Background(), mc, &bytes.Buffer{})
		require.True(t, errors.HasCode(err, c.code), "%v", err)
	}
}

func TestRunCaseInternalError(t *testing.T) {
	c, err := ParseCase([]byte(`{"columns": ["a"], "shards": [[[1]]], "order_by": [{"index": 0, "nulls": "middle"}]}`))
	require.NoError(t, err)
	_, err = newTestRunner(t).Run(context.Background(), c, &bytes.Buffer{})
	require.True(t, errors.HasCode(err, errors.InternalError))
}

func TestParseCaseInvalidJSON(t *testing.T) {
	_, err := ParseCase([]byte(`{"columns": [`))
	require.Error(t, err)
}
