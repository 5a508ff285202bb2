package merge

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/shardmerge/aggfuncs"
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
	"github.com/squareup/shardmerge/metrics"
)

// groupByMemory drains every shard into memory, groups and aggregates the rows, then sorts the groups. Draining is
// deferred to the first next so a cursor closed before use never reads from the shards.
type groupByMemory struct {
	ctx                 context.Context
	shards              []*shard
	groupBy             []OrderKey
	sortBy              []OrderKey
	aggregations        []*aggfuncs.Descriptor
	width               int
	maxRows             int64
	cancelCheckInterval int
	rowsMaterialized    metrics.Counter

	rows     []common.Row
	rowIndex int
	drained  bool
	current  common.Row
}

type memoryConfig struct {
	maxRows             int64
	cancelCheckInterval int
	rowsMaterialized    metrics.Counter
}

func newGroupByMemory(ctx context.Context, shards []*shard, p *plan, mc memoryConfig) *groupByMemory {
	groupBy := p.groupBy
	if len(groupBy) == 0 && p.distinct && len(p.aggregations) == 0 {
		groupBy = p.visibleKeys()
	}
	sortBy := p.orderBy
	if len(sortBy) == 0 {
		sortBy = groupBy
	}
	return &groupByMemory{
		ctx:                 ctx,
		shards:              shards,
		groupBy:             groupBy,
		sortBy:              sortBy,
		aggregations:        p.aggregations,
		width:               p.width,
		maxRows:             mc.maxRows,
		cancelCheckInterval: mc.cancelCheckInterval,
		rowsMaterialized:    mc.rowsMaterialized,
	}
}

func (g *groupByMemory) next() (bool, error) {
	if !g.drained {
		g.drained = true
		rows, err := g.drain()
		if err != nil {
			return false, err
		}
		g.rows = rows
	}
	if g.rowIndex >= len(g.rows) {
		g.current = nil
		return false, nil
	}
	g.current = g.rows[g.rowIndex]
	g.rows[g.rowIndex] = nil
	g.rowIndex++
	return true, nil
}

func (g *groupByMemory) drain() ([]common.Row, error) {
	groups := newGroupMap()
	var rowCount int64
	for _, s := range g.shards {
		for {
			ok, err := s.next()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			rowCount++
			if g.maxRows > 0 && rowCount > g.maxRows {
				return nil, errors.NewMemoryLimitExceededError(g.maxRows)
			}
			if g.cancelCheckInterval > 0 && rowCount%int64(g.cancelCheckInterval) == 0 {
				if err := g.ctx.Err(); err != nil {
					return nil, errors.NewCancelledError(err)
				}
			}
			if err := g.add(groups, s); err != nil {
				return nil, err
			}
		}
	}
	g.rowsMaterialized.Add(float64(rowCount))
	if groups.len() == 0 && len(g.groupBy) == 0 && len(g.aggregations) > 0 {
		// An aggregate without GROUP BY returns one row even when there are no input rows
		if err := g.addEmptyGroup(groups); err != nil {
			return nil, err
		}
	}
	rows := make([]common.Row, 0, groups.len())
	for _, grp := range groups.groups {
		if err := grp.units.WriteResults(grp.row); err != nil {
			return nil, err
		}
		rows = append(rows, grp.row)
	}
	log.Debugf("memory merge drained %d rows into %d groups", rowCount, len(rows))
	if err := g.sortRows(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (g *groupByMemory) add(groups *groupMap, s *shard) error {
	key, err := ExtractGroupKey(s, g.groupBy)
	if err != nil {
		return err
	}
	grp := groups.get(key)
	if grp == nil {
		row, err := common.SnapshotRow(s, g.width)
		if err != nil {
			return err
		}
		units, err := aggfuncs.NewUnitSet(g.aggregations)
		if err != nil {
			return err
		}
		grp = &group{key: key, row: row, units: units}
		groups.put(grp)
	}
	return grp.units.Merge(s)
}

func (g *groupByMemory) addEmptyGroup(groups *groupMap) error {
	units, err := aggfuncs.NewUnitSet(g.aggregations)
	if err != nil {
		return err
	}
	groups.put(&group{row: make(common.Row, g.width), units: units})
	return nil
}

func (g *groupByMemory) sortRows(rows []common.Row) error {
	if len(rows) < 2 || len(g.sortBy) == 0 {
		return nil
	}
	comparator := NewRowComparator(g.sortBy)
	var err error
	sort.SliceStable(rows, func(i, j int) bool {
		if err != nil {
			return false
		}
		res, cerr := comparator.Compare(rows[i], rows[j])
		if cerr != nil {
			err = cerr
			return false
		}
		return res < 0
	})
	return err
}

func (g *groupByMemory) ValueAt(colIndex int) (common.Value, error) {
	if g.current == nil {
		return nil, errors.New("cursor is not positioned on a row")
	}
	return g.current.ValueAt(colIndex)
}

func (g *groupByMemory) close() {
	g.drained = true
	g.rows = nil
	g.current = nil
}
