// Package mergerunner runs merges described by JSON case files. A case holds the rows each shard returned together
// with the metadata of the logical query, and is used to reproduce merges outside of a live deployment.
package mergerunner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/squareup/shardmerge/aggfuncs"
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
	"github.com/squareup/shardmerge/merge"
	"github.com/squareup/shardmerge/pagination"
	"muzzammil.xyz/jsonc"
)

// Case is a merge to run. Numbers with a fraction or exponent are read as decimals, others as 64 bit integers.
type Case struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	// Width is the number of columns each shard row has. Defaults to the length of the first row found, then to
	// the number of columns.
	Width          int               `json:"width"`
	Shards         [][][]interface{} `json:"shards"`
	GroupBy        []KeyConf         `json:"group_by"`
	OrderBy        []KeyConf         `json:"order_by"`
	Aggregations   []AggConf         `json:"aggregations"`
	Distinct       bool              `json:"distinct"`
	Pagination     string            `json:"pagination"`
	RowNumberAlias string            `json:"row_number_alias"`
	Params         []interface{}     `json:"params"`
	// NullsAreLowest selects the null placement of keys that do not set one.
	NullsAreLowest bool `json:"nulls_are_lowest"`
	// SingleRouteUnrewritten marks a query sent unchanged to its only shard, whose rows are then returned as is.
	SingleRouteUnrewritten bool `json:"single_route_unrewritten"`
}

// KeyConf is a GROUP BY or ORDER BY item, by column label or by index.
type KeyConf struct {
	Column          string `json:"column"`
	Index           int    `json:"index"`
	Desc            bool   `json:"desc"`
	Nulls           string `json:"nulls"`
	CaseInsensitive bool   `json:"case_insensitive"`
}

type AggConf struct {
	Kind    string `json:"kind"`
	Output  int    `json:"output"`
	Sources []int  `json:"sources"`
	Label   string `json:"label"`
}

// LoadCase reads a case file. Comments are allowed.
func LoadCase(path string) (*Case, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ParseCase(b)
}

func ParseCase(b []byte) (*Case, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(b)))
	dec.UseNumber()
	c := &Case{}
	if err := dec.Decode(c); err != nil {
		return nil, errors.WithStack(err)
	}
	for _, rows := range c.Shards {
		for _, row := range rows {
			for i, v := range row {
				cv, err := convertValue(v)
				if err != nil {
					return nil, err
				}
				row[i] = cv
			}
		}
	}
	for i, p := range c.Params {
		cv, err := convertValue(p)
		if err != nil {
			return nil, err
		}
		c.Params[i] = cv
	}
	return c, nil
}

func convertValue(v interface{}) (common.Value, error) {
	n, ok := v.(json.Number)
	if !ok {
		return v, nil
	}
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return d, nil
	}
	i, err := n.Int64()
	if err != nil {
		// too large for an int64
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return d, nil
	}
	return i, nil
}

func (c *Case) width() int {
	if c.Width > 0 {
		return c.Width
	}
	for _, rows := range c.Shards {
		if len(rows) > 0 {
			return len(rows[0])
		}
	}
	return len(c.Columns)
}

// Statement builds the merge statement the case describes.
func (c *Case) Statement() (*merge.Statement, error) {
	stmt := &merge.Statement{
		Columns:                c.Columns,
		Distinct:               c.Distinct,
		Params:                 c.Params,
		SingleRouteUnrewritten: c.SingleRouteUnrewritten,
	}
	var err error
	if stmt.GroupBy, err = c.keys(c.GroupBy); err != nil {
		return nil, err
	}
	if stmt.OrderBy, err = c.keys(c.OrderBy); err != nil {
		return nil, err
	}
	for _, ac := range c.Aggregations {
		kind, ok := aggfuncs.ParseKind(strings.ToUpper(ac.Kind))
		if !ok {
			return nil, errors.NewUnsupportedAggregationError(fmt.Sprintf("unknown aggregation %q", ac.Kind))
		}
		stmt.Aggregations = append(stmt.Aggregations, &aggfuncs.Descriptor{
			Kind:            kind,
			OutputPosition:  ac.Output,
			SourcePositions: ac.Sources,
			Label:           ac.Label,
		})
	}
	if strings.TrimSpace(c.Pagination) != "" {
		alias := c.RowNumberAlias
		if alias == "" {
			alias = pagination.DefaultRowNumberAlias
		}
		if stmt.Pagination, err = pagination.ParseWithAlias(c.Pagination, alias); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (c *Case) keys(confs []KeyConf) ([]merge.OrderKey, error) {
	keys := make([]merge.OrderKey, 0, len(confs))
	for _, kc := range confs {
		key := merge.OrderKey{Index: kc.Index, Label: kc.Column, CaseInsensitive: kc.CaseInsensitive}
		if kc.Desc {
			key.Direction = merge.Descending
		}
		switch strings.ToLower(kc.Nulls) {
		case "":
			key.NullOrder = merge.DefaultNullOrder(key.Direction, c.NullsAreLowest)
		case "first":
			key.NullOrder = merge.NullsFirst
		case "last":
			key.NullOrder = merge.NullsLast
		default:
			return nil, errors.Errorf("invalid null order %q, must be first or last", kc.Nulls)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ShardCursors returns a cursor over the rows of each shard.
func (c *Case) ShardCursors() []merge.ShardCursor {
	width := c.width()
	cursors := make([]merge.ShardCursor, len(c.Shards))
	for i, rows := range c.Shards {
		shardRows := make([]common.Row, len(rows))
		for j, row := range rows {
			shardRows[j] = row
		}
		cursors[i] = merge.NewStaticShardCursor(width, shardRows...)
	}
	return cursors
}
