package pagination

import (
	"fmt"
	"strings"

	"github.com/cznic/mathutil"
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
)

// Unbounded is the RowCount of a window without an upper bound.
const Unbounded int64 = -1

// Window is the resolved pagination: skip Offset rows, then emit at most RowCount rows.
type Window struct {
	Offset   int64
	RowCount int64
}

// NoWindow passes every row through.
var NoWindow = Window{Offset: 0, RowCount: Unbounded}

func (w Window) IsUnbounded() bool {
	return w.RowCount == Unbounded
}

func (w Window) String() string {
	if w.IsUnbounded() {
		return fmt.Sprintf("offset=%d rowCount=unbounded", w.Offset)
	}
	return fmt.Sprintf("offset=%d rowCount=%d", w.Offset, w.RowCount)
}

// Resolve computes the window for seg, reading parameter markers from params. A nil segment resolves to NoWindow.
func Resolve(seg Segment, params []common.Value) (Window, error) {
	switch s := seg.(type) {
	case nil:
		return NoWindow, nil
	case *LimitSegment:
		return resolveLimit(s, params)
	case *TopSegment:
		return resolveTop(s, params)
	case *RowNumberSegment:
		return resolveRowNumber(s, params)
	default:
		return Window{}, errors.NewMalformedPaginationError(fmt.Sprintf("unknown segment type %T", seg))
	}
}

func resolveLimit(s *LimitSegment, params []common.Value) (Window, error) {
	w := NoWindow
	if s.Offset != nil {
		offset, err := resolveValue(s.Offset, params)
		if err != nil {
			return Window{}, err
		}
		w.Offset = offset
	}
	if s.RowCount != nil {
		rowCount, err := resolveValue(s.RowCount, params)
		if err != nil {
			return Window{}, err
		}
		w.RowCount = rowCount
	}
	return w, nil
}

func resolveTop(s *TopSegment, params []common.Value) (Window, error) {
	if s.RowCount == nil {
		return Window{}, errors.NewMalformedPaginationError("TOP without a row count")
	}
	top, err := resolveValue(s.RowCount, params)
	if err != nil {
		return Window{}, err
	}
	b, err := findBounds(s.Predicate, s.RowNumberAlias, params)
	if err != nil {
		return Window{}, err
	}
	return Window{Offset: b.offset, RowCount: mathutil.MaxInt64(top-b.offset, 0)}, nil
}

func resolveRowNumber(s *RowNumberSegment, params []common.Value) (Window, error) {
	b, err := findBounds(s.Predicate, s.Alias, params)
	if err != nil {
		return Window{}, err
	}
	w := Window{Offset: b.offset, RowCount: Unbounded}
	if b.hasUpper {
		w.RowCount = mathutil.MaxInt64(b.upper-b.offset, 0)
	}
	return w, nil
}

type bounds struct {
	offset    int64
	hasOffset bool
	// upper is the highest row number to include, 1 based
	upper    int64
	hasUpper bool
}

// findBounds searches the AND connected conjuncts of pred for comparisons of alias against a number or parameter.
// The first comparison found for each side wins. OR sub trees are not searched.
func findBounds(pred Expr, alias string, params []common.Value) (bounds, error) {
	var b bounds
	if alias == "" {
		return b, nil
	}
	err := walkConjuncts(pred, func(c *Comparison) error {
		col, ok := c.Left.(*ColumnRef)
		if !ok || !strings.EqualFold(col.Name, alias) {
			return nil
		}
		bound, ok := c.Right.(ValueSegment)
		if !ok {
			return nil
		}
		switch c.Op {
		case OpGt, OpGtEq:
			if b.hasOffset {
				return nil
			}
			v, err := resolveValue(bound, params)
			if err != nil {
				return err
			}
			if c.Op == OpGtEq {
				v = mathutil.MaxInt64(v-1, 0)
			}
			b.offset, b.hasOffset = v, true
		case OpLt, OpLtEq:
			if b.hasUpper {
				return nil
			}
			v, err := resolveValue(bound, params)
			if err != nil {
				return err
			}
			if c.Op == OpLt {
				v--
			}
			b.upper, b.hasUpper = v, true
		}
		return nil
	})
	return b, err
}

func walkConjuncts(e Expr, f func(c *Comparison) error) error {
	switch ex := e.(type) {
	case *AndExpr:
		if err := walkConjuncts(ex.Left, f); err != nil {
			return err
		}
		return walkConjuncts(ex.Right, f)
	case *Comparison:
		return f(ex)
	default:
		return nil
	}
}

func resolveValue(v ValueSegment, params []common.Value) (int64, error) {
	switch val := v.(type) {
	case NumberLiteral:
		if val.Value < 0 {
			return 0, errors.NewMalformedPaginationError(fmt.Sprintf("negative bound %d", val.Value))
		}
		return val.Value, nil
	case ParameterMarker:
		if val.Index < 0 || val.Index >= len(params) {
			return 0, errors.NewMalformedPaginationError(fmt.Sprintf("parameter index %d out of range, %d parameters bound", val.Index, len(params)))
		}
		p := params[val.Index]
		i, ok := common.ToInt64(p)
		if !ok {
			return 0, errors.NewMalformedPaginationError(fmt.Sprintf("parameter %d is %s, expected an integer", val.Index, common.TypeName(p)))
		}
		if i < 0 {
			return 0, errors.NewMalformedPaginationError(fmt.Sprintf("parameter %d has negative value %d", val.Index, i))
		}
		return i, nil
	default:
		return 0, errors.NewMalformedPaginationError(fmt.Sprintf("unknown bound type %T", v))
	}
}
