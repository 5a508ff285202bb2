package merge

import (
	"fmt"

	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
)

// RowComparator orders rows by a list of keys. The first key that differs decides.
type RowComparator struct {
	keys []OrderKey
}

func NewRowComparator(keys []OrderKey) *RowComparator {
	return &RowComparator{keys: keys}
}

// Compare returns -1, 0 or 1 as a sorts before, level with or after b. Null placement follows each key's NullOrder
// whatever its direction.
func (c *RowComparator) Compare(a, b common.RowAccessor) (int, error) {
	for _, key := range c.keys {
		va, err := a.ValueAt(key.Index)
		if err != nil {
			return 0, err
		}
		vb, err := b.ValueAt(key.Index)
		if err != nil {
			return 0, err
		}
		res, err := compareValues(key, va, vb)
		if err != nil {
			return 0, err
		}
		if res != 0 {
			return res, nil
		}
	}
	return 0, nil
}

func compareValues(key OrderKey, va, vb common.Value) (int, error) {
	if va == nil || vb == nil {
		if va == nil && vb == nil {
			return 0, nil
		}
		res := 1
		if va == nil {
			res = -1
		}
		if key.NullOrder == NullsLast {
			res = -res
		}
		return res, nil
	}
	var res int
	var ok bool
	if key.CaseInsensitive {
		res, ok = common.CompareFold(va, vb)
	} else {
		res, ok = common.Compare(va, vb)
	}
	if !ok {
		return 0, errors.NewNotComparableError(key.name(),
			fmt.Sprintf("cannot order %s against %s", common.TypeName(va), common.TypeName(vb)))
	}
	if key.Direction == Descending {
		res = -res
	}
	return res, nil
}
