package merge

import (
	"context"
	"testing"

	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/conf"
	"github.com/squareup/shardmerge/errors"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(*conf.NewTestConfig(), nil)
	require.NoError(t, err)
	return e
}

// singleColumn builds a one column shard from vals.
func singleColumn(vals ...common.Value) *StaticShardCursor {
	rows := make([]common.Row, len(vals))
	for i, v := range vals {
		rows[i] = common.Row{v}
	}
	return NewStaticShardCursor(1, rows...)
}

func shardsOf(cursors ...ShardCursor) []ShardCursor {
	return cursors
}

func mergeAll(t *testing.T, e *Engine, stmt *Statement, shards []ShardCursor) []common.Row {
	t.Helper()
	cursor, err := e.Merge(context.Background(), stmt, shards)
	require.NoError(t, err)
	return drain(t, cursor)
}

func drain(t *testing.T, cursor MergedCursor) []common.Row {
	t.Helper()
	var rows []common.Row
	for {
		ok, err := cursor.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		row := make(common.Row, cursor.ColumnCount())
		for i := range row {
			v, err := cursor.ValueAt(i)
			require.NoError(t, err)
			row[i] = v
		}
		rows = append(rows, row)
	}
	ok, err := cursor.Next()
	require.NoError(t, err)
	require.False(t, ok, "cursor resumed after returning false")
	require.NoError(t, cursor.Close())
	return rows
}

func firstColumn(rows []common.Row) []common.Value {
	vals := make([]common.Value, len(rows))
	for i, row := range rows {
		vals[i] = row[0]
	}
	return vals
}

// trackingCursor counts calls to Next and can fail or run a hook after a number of rows.
type trackingCursor struct {
	*StaticShardCursor
	nextCalls int
	failAfter int
	onRow     func(n int)
}

func tracking(c *StaticShardCursor) *trackingCursor {
	return &trackingCursor{StaticShardCursor: c, failAfter: -1}
}

func (tc *trackingCursor) Next() (bool, error) {
	tc.nextCalls++
	if tc.failAfter >= 0 && tc.nextCalls > tc.failAfter {
		return false, errors.New("connection reset by peer")
	}
	ok, err := tc.StaticShardCursor.Next()
	if ok && tc.onRow != nil {
		tc.onRow(tc.nextCalls)
	}
	return ok, err
}
