package merge

import (
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
)

// StaticShardCursor is a ShardCursor over rows held in memory.
type StaticShardCursor struct {
	rows        []common.Row
	columnCount int
	pos         int
}

var _ ShardCursor = &StaticShardCursor{}

// NewStaticShardCursor returns a cursor over rows. Every row must have columnCount values.
func NewStaticShardCursor(columnCount int, rows ...common.Row) *StaticShardCursor {
	return &StaticShardCursor{rows: rows, columnCount: columnCount, pos: -1}
}

func (s *StaticShardCursor) Next() (bool, error) {
	if s.pos < len(s.rows) {
		s.pos++
	}
	return s.pos < len(s.rows), nil
}

func (s *StaticShardCursor) ValueAt(colIndex int) (common.Value, error) {
	if s.pos < 0 || s.pos >= len(s.rows) {
		return nil, errors.New("static cursor is not positioned on a row")
	}
	return s.rows[s.pos].ValueAt(colIndex)
}

func (s *StaticShardCursor) ColumnCount() int {
	return s.columnCount
}
