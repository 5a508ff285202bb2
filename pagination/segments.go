// Package pagination resolves LIMIT, TOP and ROWNUM style pagination constructs into a row window.
package pagination

import (
	"fmt"
	"strings"
)

// Segment is one of *LimitSegment, *TopSegment or *RowNumberSegment.
type Segment interface {
	segment()
	String() string
}

// ValueSegment is a pagination bound, either a NumberLiteral or a ParameterMarker.
type ValueSegment interface {
	Expr
	valueSegment()
}

// LimitSegment is LIMIT / OFFSET pagination. A nil Offset means 0, a nil RowCount means no limit.
type LimitSegment struct {
	Offset   ValueSegment
	RowCount ValueSegment
}

// TopSegment is TOP n pagination. The offset comes from a `RowNumberAlias > x` or `RowNumberAlias >= x` conjunct
// of Predicate, if there is one.
type TopSegment struct {
	RowCount       ValueSegment
	RowNumberAlias string
	Predicate      Expr
}

// RowNumberSegment is ROWNUM pagination, expressed entirely as comparisons on the Alias pseudo column in Predicate.
type RowNumberSegment struct {
	Alias     string
	Predicate Expr
}

func (*LimitSegment) segment()     {}
func (*TopSegment) segment()       {}
func (*RowNumberSegment) segment() {}

func (l *LimitSegment) String() string {
	sb := strings.Builder{}
	sb.WriteString("LIMIT")
	if l.RowCount != nil {
		sb.WriteString(" ")
		sb.WriteString(l.RowCount.String())
	} else {
		sb.WriteString(" ALL")
	}
	if l.Offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(l.Offset.String())
	}
	return sb.String()
}

func (t *TopSegment) String() string {
	s := "TOP " + exprString(t.RowCount)
	if t.Predicate != nil {
		s += " WHERE " + t.Predicate.String()
	}
	return s
}

func (r *RowNumberSegment) String() string {
	return "WHERE " + exprString(r.Predicate)
}

// Expr is a node of the predicate tree searched for row number bounds.
type Expr interface {
	expr()
	String() string
}

type Operator int

const (
	OpEq Operator = iota
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
)

var operatorSymbols = map[Operator]string{
	OpEq:    "=",
	OpNotEq: "<>",
	OpLt:    "<",
	OpLtEq:  "<=",
	OpGt:    ">",
	OpGtEq:  ">=",
}

func (o Operator) String() string {
	return operatorSymbols[o]
}

func parseOperator(symbol string) (Operator, bool) {
	if symbol == "!=" {
		return OpNotEq, true
	}
	for op, s := range operatorSymbols {
		if s == symbol {
			return op, true
		}
	}
	return 0, false
}

type AndExpr struct {
	Left, Right Expr
}

type OrExpr struct {
	Left, Right Expr
}

// Comparison is `Left Op Right`.
type Comparison struct {
	Left  Expr
	Op    Operator
	Right Expr
}

type ColumnRef struct {
	Name string
}

type NumberLiteral struct {
	Value int64
}

// ParameterMarker is a `?` placeholder. Index is zero based into the bound parameters.
type ParameterMarker struct {
	Index int
}

func (*AndExpr) expr()                {}
func (*OrExpr) expr()                 {}
func (*Comparison) expr()             {}
func (*ColumnRef) expr()              {}
func (NumberLiteral) expr()           {}
func (ParameterMarker) expr()         {}
func (NumberLiteral) valueSegment()   {}
func (ParameterMarker) valueSegment() {}

func (a *AndExpr) String() string {
	return fmt.Sprintf("(%s AND %s)", exprString(a.Left), exprString(a.Right))
}

func (o *OrExpr) String() string {
	return fmt.Sprintf("(%s OR %s)", exprString(o.Left), exprString(o.Right))
}

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", exprString(c.Left), c.Op, exprString(c.Right))
}

func (c *ColumnRef) String() string {
	return c.Name
}

func (n NumberLiteral) String() string {
	return fmt.Sprintf("%d", n.Value)
}

func (p ParameterMarker) String() string {
	return fmt.Sprintf("?%d", p.Index)
}

func exprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}
