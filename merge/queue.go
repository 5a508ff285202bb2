package merge

import (
	"container/heap"
)

// shardQueue is a min heap of the shards positioned on a row, ordered by the current row of each shard. Ties are
// broken by shard index so the merge is deterministic. heap.Interface cannot return errors, so the first
// comparison error is kept in err and must be checked after each heap operation.
type shardQueue struct {
	comparator *RowComparator
	shards     []*shard
	err        error
}

func (q *shardQueue) Len() int { return len(q.shards) }

func (q *shardQueue) Less(i, j int) bool {
	if q.err != nil {
		return false
	}
	a, b := q.shards[i], q.shards[j]
	res, err := q.comparator.Compare(a, b)
	if err != nil {
		q.err = err
		return false
	}
	if res == 0 {
		return a.index < b.index
	}
	return res < 0
}

func (q *shardQueue) Swap(i, j int)      { q.shards[i], q.shards[j] = q.shards[j], q.shards[i] }
func (q *shardQueue) Push(x interface{}) { q.shards = append(q.shards, x.(*shard)) }
func (q *shardQueue) Pop() interface{} {
	n := len(q.shards)
	s := q.shards[n-1]
	q.shards[n-1] = nil
	q.shards = q.shards[:n-1]
	return s
}

// prime advances every shard onto its first row and builds the heap from those that have one.
func (q *shardQueue) prime(shards []*shard) error {
	q.shards = make([]*shard, 0, len(shards))
	for _, s := range shards {
		ok, err := s.next()
		if err != nil {
			return err
		}
		if ok {
			q.shards = append(q.shards, s)
		}
	}
	heap.Init(q)
	return q.err
}

func (q *shardQueue) top() *shard {
	return q.shards[0]
}

// advanceTop moves the smallest shard to its next row, removing it from the heap once exhausted.
func (q *shardQueue) advanceTop() error {
	ok, err := q.shards[0].next()
	if err != nil {
		return err
	}
	if ok {
		heap.Fix(q, 0)
	} else {
		heap.Pop(q)
	}
	return q.err
}

func (q *shardQueue) release() {
	q.shards = nil
}
