package merge

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/conf"
	"github.com/squareup/shardmerge/errors"
	"github.com/squareup/shardmerge/metrics"
)

type Strategy int

const (
	// PassThrough returns the only shard's rows untouched. Only used when the caller marks the statement as
	// SingleRouteUnrewritten, as the shard's result is then final.
	PassThrough Strategy = iota
	// Iterator concatenates the shards.
	Iterator
	// OrderByStream k-way merges shards sorted by the ORDER BY keys.
	OrderByStream
	// GroupByStream k-way merges shards sorted by the GROUP BY keys, folding each group as it passes.
	GroupByStream
	// GroupByMemory materializes, groups and sorts every row.
	GroupByMemory
)

var strategyNames = []string{"PassThrough", "Iterator", "OrderByStream", "GroupByStream", "GroupByMemory"}

func (s Strategy) String() string {
	if s >= 0 && int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Engine merges shard results. It holds no per query state and can be shared by concurrent queries. Each
// MergedCursor it returns is for a single consumer.
type Engine struct {
	cfg              conf.Config
	merges           metrics.CounterVec
	rowsEmitted      metrics.Counter
	rowsMaterialized metrics.Counter
	failures         metrics.Counter
}

func NewEngine(cfg conf.Config, mf metrics.Factory) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mf == nil {
		mf = metrics.NewNoopFactory()
	}
	merges, err := mf.CreateCounterVec("shardmerge_merges_total", "Number of merges by strategy", "strategy")
	if err != nil {
		return nil, err
	}
	rowsEmitted, err := mf.CreateCounter("shardmerge_rows_emitted_total", "Number of rows returned by merged cursors")
	if err != nil {
		return nil, err
	}
	rowsMaterialized, err := mf.CreateCounter("shardmerge_rows_materialized_total", "Number of shard rows held in memory by memory merges")
	if err != nil {
		return nil, err
	}
	failures, err := mf.CreateCounter("shardmerge_merge_failures_total", "Number of merges that failed")
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:              cfg,
		merges:           merges,
		rowsEmitted:      rowsEmitted,
		rowsMaterialized: rowsMaterialized,
		failures:         failures,
	}, nil
}

// SelectStrategy picks how the shard results of stmt are merged.
func (e *Engine) SelectStrategy(stmt *Statement, shardCount int) Strategy {
	if stmt.SingleRouteUnrewritten && shardCount == 1 && !stmt.hasDerivedAggregation() {
		return PassThrough
	}
	if len(stmt.GroupBy) > 0 || len(stmt.Aggregations) > 0 || stmt.Distinct {
		if len(stmt.GroupBy) > 0 && sameKeys(stmt.GroupBy, stmt.effectiveOrderBy()) {
			return GroupByStream
		}
		return GroupByMemory
	}
	if len(stmt.OrderBy) > 0 {
		return OrderByStream
	}
	return Iterator
}

// Merge returns a cursor over the merged results of shardCursors. Rows are only read from the shards as the
// returned cursor is advanced. ctx is checked on every Next and while a memory merge drains the shards.
func (e *Engine) Merge(ctx context.Context, stmt *Statement, shardCursors []ShardCursor) (MergedCursor, error) {
	p, err := newPlan(stmt, shardCursors)
	if err != nil {
		e.failures.Inc()
		return nil, err
	}
	resolved := *stmt
	resolved.GroupBy = p.groupBy
	resolved.OrderBy = p.orderBy
	p.strategy = e.SelectStrategy(&resolved, len(shardCursors))
	e.merges.WithLabelValues(p.strategy.String()).Inc()
	log.WithFields(log.Fields{
		"strategy": p.strategy,
		"shards":   len(shardCursors),
		"window":   p.window,
	}).Debug("merging shard results")

	shards := newShards(shardCursors)
	var src source
	switch p.strategy {
	case PassThrough:
		src = shards[0]
	case Iterator:
		src = newIteratorStream(shards)
	case OrderByStream:
		src = newOrderByStream(shards, p.orderBy)
	case GroupByStream:
		src = newGroupByStream(shards, p)
	case GroupByMemory:
		src = newGroupByMemory(ctx, shards, p, memoryConfig{
			maxRows:             e.cfg.MaxMemoryMergeRows,
			cancelCheckInterval: e.cfg.CancelCheckInterval,
			rowsMaterialized:    e.rowsMaterialized,
		})
	default:
		panic(fmt.Sprintf("unexpected strategy %d", p.strategy))
	}
	if p.strategy != PassThrough {
		src = newPaginatedSource(src, p.window)
	}
	return &mergedCursor{
		ctx:         ctx,
		engine:      e,
		src:         src,
		strategy:    p.strategy,
		labels:      p.labels,
		columnCount: p.columnCount,
	}, nil
}

type mergedCursor struct {
	ctx         context.Context
	engine      *Engine
	src         source
	strategy    Strategy
	labels      map[string]int
	columnCount int

	positioned bool
	done       bool
	err        error
}

func (m *mergedCursor) Next() (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.done {
		return false, nil
	}
	if err := m.ctx.Err(); err != nil {
		return false, m.fail(errors.NewCancelledError(err))
	}
	ok, err := m.src.next()
	if err != nil {
		return false, m.fail(err)
	}
	if !ok {
		m.release()
		return false, nil
	}
	m.positioned = true
	m.engine.rowsEmitted.Inc()
	return true, nil
}

func (m *mergedCursor) fail(err error) error {
	if errors.HasCode(err, errors.ShardCursorFailure) {
		log.Warnf("merge using %s aborted: %v", m.strategy, err)
	}
	m.err = errors.MaybeAddStack(err)
	m.engine.failures.Inc()
	m.release()
	return m.err
}

func (m *mergedCursor) release() {
	m.done = true
	m.positioned = false
	m.src.close()
}

func (m *mergedCursor) ValueAt(colIndex int) (common.Value, error) {
	if colIndex < 0 || colIndex >= m.columnCount {
		return nil, errors.NewUnknownColumnError(fmt.Sprintf("#%d", colIndex))
	}
	if !m.positioned {
		return nil, errors.New("cursor is not positioned on a row")
	}
	return m.src.ValueAt(colIndex)
}

func (m *mergedCursor) ValueByLabel(label string) (common.Value, error) {
	idx, ok := m.labels[strings.ToLower(label)]
	if !ok {
		return nil, errors.NewUnknownColumnError(label)
	}
	return m.ValueAt(idx)
}

func (m *mergedCursor) ColumnCount() int {
	return m.columnCount
}

// Close releases all merge state. The shard cursors are left open for their owner to close.
func (m *mergedCursor) Close() error {
	if !m.done {
		m.release()
	}
	m.err = nil
	return nil
}
