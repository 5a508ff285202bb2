package aggfuncs

import (
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
)

// UnitSet holds one Unit per descriptor for a single group.
type UnitSet struct {
	descs  []*Descriptor
	units  []*Unit
	values []common.Value
}

func NewUnitSet(descs []*Descriptor) (*UnitSet, error) {
	units := make([]*Unit, len(descs))
	for i, desc := range descs {
		u, err := NewUnit(desc)
		if err != nil {
			return nil, err
		}
		units[i] = u
	}
	return &UnitSet{descs: descs, units: units, values: make([]common.Value, 0, 2)}, nil
}

// Validate checks that a unit can be created for every descriptor.
func Validate(descs []*Descriptor) error {
	_, err := NewUnitSet(descs)
	return err
}

// Merge reads every unit's input positions from row and merges them.
func (s *UnitSet) Merge(row common.RowAccessor) error {
	for i, desc := range s.descs {
		values := s.values[:0]
		for _, pos := range desc.inputPositions() {
			v, err := row.ValueAt(pos)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		if err := s.units[i].Merge(values); err != nil {
			return err
		}
	}
	return nil
}

// WriteResults writes each unit's result into row at its output position. For AVG the merged sum and count are
// also written to the derived positions.
func (s *UnitSet) WriteResults(row common.Row) error {
	for i, desc := range s.descs {
		res, err := s.units[i].Result()
		if err != nil {
			return err
		}
		if err := setValue(row, desc.OutputPosition, res); err != nil {
			return err
		}
		sum, count, ok, err := s.units[i].DerivedResults()
		if err != nil {
			return err
		}
		if ok {
			if err := setValue(row, desc.SourcePositions[0], sum); err != nil {
				return err
			}
			if err := setValue(row, desc.SourcePositions[1], count); err != nil {
				return err
			}
		}
	}
	return nil
}

func setValue(row common.Row, pos int, v common.Value) error {
	if pos >= len(row) {
		return errors.Errorf("aggregate position %d out of range, row has %d columns", pos, len(row))
	}
	row[pos] = v
	return nil
}
