package merge

import (
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
)

// iteratorStream returns the rows of each shard in turn, for queries with no ordering or grouping.
type iteratorStream struct {
	shards   []*shard
	shardIdx int
	current  *shard
}

func newIteratorStream(shards []*shard) *iteratorStream {
	return &iteratorStream{shards: shards}
}

func (it *iteratorStream) next() (bool, error) {
	for it.shardIdx < len(it.shards) {
		s := it.shards[it.shardIdx]
		ok, err := s.next()
		if err != nil {
			return false, err
		}
		if ok {
			it.current = s
			return true, nil
		}
		it.shardIdx++
	}
	it.current = nil
	return false, nil
}

func (it *iteratorStream) ValueAt(colIndex int) (common.Value, error) {
	if it.current == nil {
		return nil, errors.New("cursor is not positioned on a row")
	}
	return it.current.ValueAt(colIndex)
}

func (it *iteratorStream) close() {
	it.shardIdx = len(it.shards)
	it.current = nil
}
