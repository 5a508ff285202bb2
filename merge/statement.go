package merge

import (
	"fmt"
	"strings"

	"github.com/cznic/mathutil"
	"github.com/squareup/shardmerge/aggfuncs"
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
	"github.com/squareup/shardmerge/pagination"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

type NullOrder int

const (
	NullsFirst NullOrder = iota
	NullsLast
)

func (n NullOrder) String() string {
	if n == NullsLast {
		return "NULLS LAST"
	}
	return "NULLS FIRST"
}

// DefaultNullOrder returns the null placement a database uses when the query does not specify one. Databases that
// treat NULL as the lowest value (MySQL, SQL Server) put nulls first when ascending, the others (PostgreSQL,
// Oracle) put them last.
func DefaultNullOrder(direction Direction, nullsAreLowest bool) NullOrder {
	if nullsAreLowest == (direction == Ascending) {
		return NullsFirst
	}
	return NullsLast
}

// OrderKey is one ORDER BY or GROUP BY item. When Label is set it is resolved against Statement.Columns and takes
// precedence over Index.
type OrderKey struct {
	Index           int
	Label           string
	Direction       Direction
	NullOrder       NullOrder
	CaseInsensitive bool
}

func (k OrderKey) name() string {
	if k.Label != "" {
		return k.Label
	}
	return fmt.Sprintf("#%d", k.Index)
}

func (k OrderKey) String() string {
	return fmt.Sprintf("%s %s %s", k.name(), k.Direction, k.NullOrder)
}

func sameKey(a, b OrderKey) bool {
	if a.Label != "" && b.Label != "" {
		if !strings.EqualFold(a.Label, b.Label) {
			return false
		}
	} else if a.Index != b.Index {
		return false
	}
	return a.Direction == b.Direction && a.NullOrder == b.NullOrder && a.CaseInsensitive == b.CaseInsensitive
}

func sameKeys(a, b []OrderKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameKey(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Statement is the metadata of the logical query whose shard results are merged.
//
// Columns are the labels of the visible columns. Shards may return extra trailing columns, such as the derived
// SUM and COUNT of an AVG, which are not visible in the merged result.
type Statement struct {
	Columns      []string
	GroupBy      []OrderKey
	OrderBy      []OrderKey
	Aggregations []*aggfuncs.Descriptor
	Distinct     bool
	Pagination   pagination.Segment
	Params       []common.Value
	// SingleRouteUnrewritten is set by the caller when the query was routed to exactly one shard and sent to it
	// without rewriting, so that shard's result is already final.
	SingleRouteUnrewritten bool
}

func (s *Statement) hasDerivedAggregation() bool {
	for _, agg := range s.Aggregations {
		if agg.IsDerived() {
			return true
		}
	}
	return false
}

// effectiveOrderBy is the ORDER BY the merged result must follow. A grouped query without ORDER BY is ordered by
// its GROUP BY items.
func (s *Statement) effectiveOrderBy() []OrderKey {
	if len(s.OrderBy) == 0 {
		return s.GroupBy
	}
	return s.OrderBy
}

// plan is a statement resolved against the shard cursors.
type plan struct {
	strategy     Strategy
	groupBy      []OrderKey
	orderBy      []OrderKey
	aggregations []*aggfuncs.Descriptor
	distinct     bool
	window       pagination.Window
	columnCount  int
	// width is the number of columns each shard row has, including hidden ones
	width  int
	labels map[string]int
}

func newPlan(stmt *Statement, shardCursors []ShardCursor) (*plan, error) {
	p := &plan{
		aggregations: stmt.Aggregations,
		distinct:     stmt.Distinct,
		labels:       make(map[string]int, len(stmt.Columns)),
	}
	for i, label := range stmt.Columns {
		lower := strings.ToLower(label)
		if _, exists := p.labels[lower]; !exists {
			p.labels[lower] = i
		}
	}
	if len(shardCursors) > 0 {
		p.width = shardCursors[0].ColumnCount()
	} else {
		p.width = len(stmt.Columns)
		for _, agg := range stmt.Aggregations {
			p.width = mathutil.Max(p.width, agg.OutputPosition+1)
			for _, pos := range agg.SourcePositions {
				p.width = mathutil.Max(p.width, pos+1)
			}
		}
	}
	p.columnCount = p.width
	if len(stmt.Columns) > 0 {
		p.columnCount = len(stmt.Columns)
	}
	var err error
	if p.groupBy, err = p.resolveKeys(stmt.GroupBy); err != nil {
		return nil, err
	}
	if p.orderBy, err = p.resolveKeys(stmt.OrderBy); err != nil {
		return nil, err
	}
	if len(p.orderBy) == 0 {
		p.orderBy = p.groupBy
	}
	if err := aggfuncs.Validate(stmt.Aggregations); err != nil {
		return nil, err
	}
	for _, agg := range stmt.Aggregations {
		if agg.OutputPosition >= p.width {
			return nil, errors.NewUnknownColumnError(fmt.Sprintf("#%d", agg.OutputPosition))
		}
		for _, pos := range agg.SourcePositions {
			if pos >= p.width {
				return nil, errors.NewUnknownColumnError(fmt.Sprintf("#%d", pos))
			}
		}
	}
	if p.window, err = pagination.Resolve(stmt.Pagination, stmt.Params); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *plan) resolveKeys(keys []OrderKey) ([]OrderKey, error) {
	resolved := make([]OrderKey, len(keys))
	for i, key := range keys {
		if key.Label != "" {
			idx, ok := p.labels[strings.ToLower(key.Label)]
			if !ok {
				return nil, errors.NewUnknownColumnError(key.Label)
			}
			key.Index = idx
		}
		if key.Index < 0 || key.Index >= p.width {
			return nil, errors.NewUnknownColumnError(key.name())
		}
		resolved[i] = key
	}
	return resolved, nil
}

// visibleKeys groups on every visible column. Used for DISTINCT without GROUP BY.
func (p *plan) visibleKeys() []OrderKey {
	keys := make([]OrderKey, p.columnCount)
	for i := range keys {
		keys[i] = OrderKey{Index: i}
	}
	return keys
}
