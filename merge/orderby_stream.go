package merge

import (
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
)

type streamState int

const (
	stateInitial streamState = iota
	stateDraining
	stateExhausted
)

// orderByStream is a k-way merge of shards that are each sorted by the ORDER BY keys. The winning shard is only
// advanced on the following next, so ValueAt reads straight from the shard cursor.
type orderByStream struct {
	shards  []*shard
	queue   *shardQueue
	state   streamState
	current *shard
}

func newOrderByStream(shards []*shard, orderBy []OrderKey) *orderByStream {
	return &orderByStream{
		shards: shards,
		queue:  &shardQueue{comparator: NewRowComparator(orderBy)},
	}
}

func (o *orderByStream) next() (bool, error) {
	switch o.state {
	case stateExhausted:
		return false, nil
	case stateInitial:
		o.state = stateDraining
		if err := o.queue.prime(o.shards); err != nil {
			return false, err
		}
	case stateDraining:
		if err := o.queue.advanceTop(); err != nil {
			return false, err
		}
	}
	if o.queue.Len() == 0 {
		o.state = stateExhausted
		o.current = nil
		return false, nil
	}
	o.current = o.queue.top()
	return true, nil
}

func (o *orderByStream) ValueAt(colIndex int) (common.Value, error) {
	if o.current == nil {
		return nil, errors.New("cursor is not positioned on a row")
	}
	return o.current.ValueAt(colIndex)
}

func (o *orderByStream) close() {
	o.state = stateExhausted
	o.current = nil
	o.queue.release()
}
