package aggfuncs

import (
	"fmt"

	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
)

// Unit accumulates one aggregate for one group. The kind selects which of the fields are used.
type Unit struct {
	desc *Descriptor

	// SUM, COUNT, MAX and MIN
	value common.Value
	rows  int64

	// AVG merges its derived columns as a SUM and a COUNT
	sum   *Unit
	count *Unit

	distinct *valueSet
	custom   CustomUnit
}

// NewUnit creates an empty accumulator for desc.
func NewUnit(desc *Descriptor) (*Unit, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	u := &Unit{desc: desc}
	switch desc.Kind {
	case Sum, Count, Max, Min:
	case Avg:
		var err error
		name := desc.columnName()
		if u.sum, err = NewUnit(&Descriptor{Kind: Sum, OutputPosition: desc.SourcePositions[0], Label: name}); err != nil {
			return nil, err
		}
		countPos := desc.SourcePositions[1]
		if u.count, err = NewUnit(&Descriptor{Kind: Count, OutputPosition: countPos, SourcePositions: []int{countPos}, Label: name}); err != nil {
			return nil, err
		}
	case DistinctCount, DistinctSum, DistinctAvg:
		u.distinct = newValueSet()
	default:
		factory, ok := lookupCustom(desc.Kind)
		if !ok {
			return nil, errors.NewUnsupportedAggregationError(fmt.Sprintf("no unit registered for %s", desc.Kind))
		}
		u.custom = factory(desc)
	}
	return u, nil
}

// Merge folds the values read from one row's input positions into the unit.
func (u *Unit) Merge(values []common.Value) error {
	switch u.desc.Kind {
	case Sum:
		return u.mergeSum(values)
	case Count:
		return u.mergeCount(values)
	case Max:
		return u.mergeExtremum(values, 1)
	case Min:
		return u.mergeExtremum(values, -1)
	case Avg:
		if err := u.sum.Merge(values[:1]); err != nil {
			return err
		}
		return u.count.Merge(values[1:])
	case DistinctCount, DistinctSum, DistinctAvg:
		return u.mergeDistinct(values)
	default:
		return u.custom.Merge(values)
	}
}

// Result returns the aggregate value. NULL is returned for SUM, MAX, MIN and AVG when no non-null input was seen.
func (u *Unit) Result() (common.Value, error) {
	switch u.desc.Kind {
	case Sum, Max, Min:
		return u.value, nil
	case Count:
		if u.value == nil {
			return u.rows, nil
		}
		return u.value, nil
	case Avg:
		sum, count, err := u.derived()
		if err != nil {
			return nil, err
		}
		return u.avg(sum, count)
	case DistinctCount:
		return int64(u.distinct.size()), nil
	case DistinctSum:
		return u.distinct.sum, nil
	case DistinctAvg:
		return u.avg(u.distinct.sum, int64(u.distinct.size()))
	default:
		return u.custom.Result()
	}
}

// DerivedResults returns the merged sum and count of an AVG so they can be written back to the derived columns.
// ok is false for other kinds.
func (u *Unit) DerivedResults() (sum common.Value, count common.Value, ok bool, err error) {
	if u.desc.Kind != Avg {
		return nil, nil, false, nil
	}
	sum, count, err = u.derived()
	return sum, count, err == nil, err
}

func (u *Unit) derived() (common.Value, common.Value, error) {
	sum, err := u.sum.Result()
	if err != nil {
		return nil, nil, err
	}
	count, err := u.count.Result()
	if err != nil {
		return nil, nil, err
	}
	return sum, count, nil
}

func (u *Unit) mergeSum(values []common.Value) error {
	v := values[0]
	if v == nil {
		return nil
	}
	return u.add(&u.value, v)
}

func (u *Unit) mergeCount(values []common.Value) error {
	if len(values) == 0 {
		u.rows++
		return nil
	}
	v := values[0]
	if v == nil {
		if u.value == nil {
			u.value = int64(0)
		}
		return nil
	}
	return u.add(&u.value, v)
}

func (u *Unit) mergeExtremum(values []common.Value, want int) error {
	v := common.Normalize(values[0])
	if v == nil {
		return nil
	}
	if u.value == nil {
		if _, ok := common.Compare(v, v); !ok {
			return u.notComparable(v)
		}
		u.value = v
		return nil
	}
	res, ok := common.Compare(v, u.value)
	if !ok {
		return u.notComparable(v)
	}
	if res == want {
		u.value = v
	}
	return nil
}

func (u *Unit) mergeDistinct(values []common.Value) error {
	v := common.Normalize(values[0])
	if v == nil {
		return nil
	}
	added, ok := u.distinct.add(v)
	if !ok {
		return u.notComparable(v)
	}
	if !added || u.desc.Kind == DistinctCount {
		return nil
	}
	return u.add(&u.distinct.sum, v)
}

func (u *Unit) add(total *common.Value, v common.Value) error {
	if *total == nil {
		if _, ok := common.Add(int64(0), v); !ok {
			return u.notComparable(v)
		}
		*total = common.Normalize(v)
		return nil
	}
	sum, ok := common.Add(*total, v)
	if !ok {
		return u.notComparable(v)
	}
	*total = sum
	return nil
}

func (u *Unit) avg(sum common.Value, count common.Value) (common.Value, error) {
	if sum == nil || count == nil {
		return nil, nil
	}
	c, ok := common.ToInt64(count)
	if !ok {
		return nil, errors.Errorf("count %v for %s is not an integer", count, u.desc.columnName())
	}
	if c == 0 {
		return nil, nil
	}
	avg, ok := common.Divide(sum, c)
	if !ok {
		return nil, u.notComparable(sum)
	}
	return avg, nil
}

func (u *Unit) notComparable(v common.Value) error {
	return errors.NewNotComparableError(u.desc.columnName(), fmt.Sprintf("%s does not support %s", common.TypeName(v), u.desc.Kind))
}
