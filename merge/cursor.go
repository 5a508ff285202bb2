// Package merge combines the result sets of several shards into one logical result set with the ordering,
// grouping, aggregate values and pagination of the original, unsharded query.
package merge

import (
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
)

// ShardCursor is a forward only cursor over the rows one shard returned. The engine borrows it for the lifetime of
// the merged cursor and never closes it.
type ShardCursor interface {
	Next() (bool, error)
	ValueAt(colIndex int) (common.Value, error)
	ColumnCount() int
}

// MergedCursor is the merged result. Once Next returns false, or an error, it keeps doing so.
type MergedCursor interface {
	Next() (bool, error)
	ValueAt(colIndex int) (common.Value, error)
	ValueByLabel(label string) (common.Value, error)
	ColumnCount() int
	Close() error
}

// source is the row sequence produced by one merge strategy.
type source interface {
	next() (bool, error)
	ValueAt(colIndex int) (common.Value, error)
	close()
}

// shard wraps a ShardCursor, tagging its errors with the shard index and normalizing its values.
type shard struct {
	index  int
	cursor ShardCursor
	done   bool
}

func newShards(cursors []ShardCursor) []*shard {
	shards := make([]*shard, len(cursors))
	for i, c := range cursors {
		shards[i] = &shard{index: i, cursor: c}
	}
	return shards
}

func (s *shard) next() (bool, error) {
	if s.done {
		return false, nil
	}
	ok, err := s.cursor.Next()
	if err != nil {
		s.done = true
		return false, errors.NewShardCursorError(s.index, err)
	}
	if !ok {
		s.done = true
	}
	return ok, nil
}

func (s *shard) ValueAt(colIndex int) (common.Value, error) {
	v, err := s.cursor.ValueAt(colIndex)
	if err != nil {
		return nil, errors.NewShardCursorError(s.index, err)
	}
	return common.Normalize(v), nil
}

func (s *shard) close() {}
