//nolint:govet
package pagination

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer/stateful"

	"github.com/squareup/shardmerge/errors"
)

// DefaultRowNumberAlias is the pseudo column name used when Parse is not given one.
const DefaultRowNumberAlias = "ROWNUM"

var (
	lex = stateful.MustSimple([]stateful.Rule{
		{`Ident`, `[a-zA-Z_][a-zA-Z_0-9]*`, nil},
		{`Number`, `-?\d+`, nil},
		{`Punct`, `<=|>=|<>|!=|[,()=<>?]`, nil},
		{`Whitespace`, `\s+`, nil},
	})
	parser = participle.MustBuild(&clauseAST{},
		participle.Lexer(lex),
		participle.CaseInsensitive("Ident"),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
)

type clauseAST struct {
	Limit  *limitAST  `  @@`
	Offset *offsetAST `| @@`
	Top    *topAST    `| @@`
	Where  *whereAST  `| @@`
}

// LIMIT count | LIMIT offset, count | LIMIT count OFFSET offset
type limitAST struct {
	First *valueAST     `"LIMIT" @@`
	Tail  *limitTailAST `@@?`
}

type limitTailAST struct {
	Comma  *valueAST `  "," @@`
	Offset *valueAST `| "OFFSET" @@`
}

type offsetAST struct {
	Offset   *valueAST `"OFFSET" @@`
	RowCount *valueAST `("LIMIT" @@)?`
}

type topAST struct {
	RowCount *valueAST `"TOP" @@`
	Where    *whereAST `@@?`
}

type whereAST struct {
	Cond *orAST `"WHERE" @@`
}

type orAST struct {
	Left  *andAST   `@@`
	Right []*andAST `("OR" @@)*`
}

type andAST struct {
	Left  *termAST   `@@`
	Right []*termAST `("AND" @@)*`
}

type termAST struct {
	Sub *orAST   `  "(" @@ ")"`
	Cmp *cmpAST `| @@`
}

type cmpAST struct {
	Left  *operandAST `@@`
	Op    string      `@("<=" | ">=" | "<>" | "!=" | "=" | "<" | ">")`
	Right *operandAST `@@`
}

type operandAST struct {
	Column string    `  @Ident`
	Value  *valueAST `| @@`
}

type valueAST struct {
	Param  bool   `  @"?"`
	Number *int64 `| @Number`
}

// Parse parses a textual pagination clause into a Segment using DefaultRowNumberAlias as the row number column.
func Parse(text string) (Segment, error) {
	return ParseWithAlias(text, DefaultRowNumberAlias)
}

// ParseWithAlias parses one of
//
//	LIMIT count
//	LIMIT offset, count
//	LIMIT count OFFSET offset
//	OFFSET offset [LIMIT count]
//	TOP count [WHERE predicate]
//	WHERE predicate
//
// where bounds are non negative integers or `?` parameter markers, numbered from zero left to right.
func ParseWithAlias(text string, alias string) (Segment, error) {
	ast := &clauseAST{}
	if err := parser.ParseString("", text, ast); err != nil {
		return nil, errors.NewMalformedPaginationError(err.Error())
	}
	if ast.Limit == nil && ast.Offset == nil && ast.Top == nil && ast.Where == nil {
		return nil, errors.NewMalformedPaginationError("empty pagination clause")
	}
	b := &segmentBuilder{}
	switch {
	case ast.Limit != nil:
		return b.limit(ast.Limit), nil
	case ast.Offset != nil:
		seg := &LimitSegment{Offset: b.value(ast.Offset.Offset)}
		if ast.Offset.RowCount != nil {
			seg.RowCount = b.value(ast.Offset.RowCount)
		}
		return seg, nil
	case ast.Top != nil:
		seg := &TopSegment{RowCount: b.value(ast.Top.RowCount), RowNumberAlias: alias}
		if ast.Top.Where != nil {
			seg.Predicate = b.or(ast.Top.Where.Cond)
		}
		return seg, nil
	default:
		return &RowNumberSegment{Alias: alias, Predicate: b.or(ast.Where.Cond)}, nil
	}
}

// segmentBuilder converts the AST, numbering parameter markers in the order they are visited.
type segmentBuilder struct {
	nextParam int
}

func (b *segmentBuilder) limit(l *limitAST) *LimitSegment {
	first := b.value(l.First)
	switch {
	case l.Tail == nil:
		return &LimitSegment{RowCount: first}
	case l.Tail.Comma != nil:
		return &LimitSegment{Offset: first, RowCount: b.value(l.Tail.Comma)}
	default:
		return &LimitSegment{RowCount: first, Offset: b.value(l.Tail.Offset)}
	}
}

func (b *segmentBuilder) value(v *valueAST) ValueSegment {
	if v.Param {
		idx := b.nextParam
		b.nextParam++
		return ParameterMarker{Index: idx}
	}
	return NumberLiteral{Value: *v.Number}
}

func (b *segmentBuilder) or(o *orAST) Expr {
	e := b.and(o.Left)
	for _, r := range o.Right {
		e = &OrExpr{Left: e, Right: b.and(r)}
	}
	return e
}

func (b *segmentBuilder) and(a *andAST) Expr {
	e := b.term(a.Left)
	for _, r := range a.Right {
		e = &AndExpr{Left: e, Right: b.term(r)}
	}
	return e
}

func (b *segmentBuilder) term(t *termAST) Expr {
	if t.Sub != nil {
		return b.or(t.Sub)
	}
	left := b.operand(t.Cmp.Left)
	op, _ := parseOperator(t.Cmp.Op)
	return &Comparison{Left: left, Op: op, Right: b.operand(t.Cmp.Right)}
}

func (b *segmentBuilder) operand(o *operandAST) Expr {
	if o.Value != nil {
		return b.value(o.Value)
	}
	return &ColumnRef{Name: o.Column}
}
