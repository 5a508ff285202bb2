package common

import (
	"github.com/squareup/shardmerge/errors"
)

// RowAccessor gives positional access to the values of one row.
type RowAccessor interface {
	ValueAt(colIndex int) (Value, error)
}

// Row is an owned, materialized row. Values are normalized.
type Row []Value

func (r Row) ValueAt(colIndex int) (Value, error) {
	if colIndex < 0 || colIndex >= len(r) {
		return nil, errors.Errorf("column index %d out of range, row has %d columns", colIndex, len(r))
	}
	return r[colIndex], nil
}

func (r Row) ColCount() int {
	return len(r)
}

// IsNull returns true if the value at colIndex is nil. It panics if colIndex is out of range.
func (r Row) IsNull(colIndex int) bool {
	return r[colIndex] == nil
}

// SnapshotRow copies colCount values out of acc into a new Row.
func SnapshotRow(acc RowAccessor, colCount int) (Row, error) {
	row := make(Row, colCount)
	for i := 0; i < colCount; i++ {
		v, err := acc.ValueAt(i)
		if err != nil {
			return nil, err
		}
		row[i] = Normalize(v)
	}
	return row, nil
}
