package merge

import (
	"github.com/squareup/shardmerge/aggfuncs"
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
)

// groupByStream merges shards that are each sorted by the GROUP BY keys. Rows with equal keys arrive next to each
// other in the merged order, so each group is folded and emitted as soon as a row of the next group shows up.
type groupByStream struct {
	shards       []*shard
	queue        *shardQueue
	groupBy      []OrderKey
	aggregations []*aggfuncs.Descriptor
	width        int
	state        streamState
	current      common.Row
}

func newGroupByStream(shards []*shard, p *plan) *groupByStream {
	return &groupByStream{
		shards:       shards,
		queue:        &shardQueue{comparator: NewRowComparator(p.orderBy)},
		groupBy:      p.groupBy,
		aggregations: p.aggregations,
		width:        p.width,
	}
}

func (g *groupByStream) next() (bool, error) {
	if g.state == stateExhausted {
		return false, nil
	}
	if g.state == stateInitial {
		g.state = stateDraining
		if err := g.queue.prime(g.shards); err != nil {
			return false, err
		}
	}
	if g.queue.Len() == 0 {
		g.state = stateExhausted
		g.current = nil
		return false, nil
	}
	top := g.queue.top()
	key, err := ExtractGroupKey(top, g.groupBy)
	if err != nil {
		return false, err
	}
	row, err := common.SnapshotRow(top, g.width)
	if err != nil {
		return false, err
	}
	units, err := aggfuncs.NewUnitSet(g.aggregations)
	if err != nil {
		return false, err
	}
	for {
		if err := units.Merge(top); err != nil {
			return false, err
		}
		if err := g.queue.advanceTop(); err != nil {
			return false, err
		}
		if g.queue.Len() == 0 {
			break
		}
		top = g.queue.top()
		nextKey, err := ExtractGroupKey(top, g.groupBy)
		if err != nil {
			return false, err
		}
		if !nextKey.Equal(key) {
			break
		}
	}
	if err := units.WriteResults(row); err != nil {
		return false, err
	}
	g.current = row
	return true, nil
}

func (g *groupByStream) ValueAt(colIndex int) (common.Value, error) {
	if g.current == nil {
		return nil, errors.New("cursor is not positioned on a row")
	}
	return g.current.ValueAt(colIndex)
}

func (g *groupByStream) close() {
	g.state = stateExhausted
	g.current = nil
	g.queue.release()
}
