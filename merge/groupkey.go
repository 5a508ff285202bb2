package merge

import (
	"bytes"
	"fmt"

	"github.com/squareup/shardmerge/aggfuncs"
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
	"github.com/twmb/murmur3"
)

// GroupKey identifies the group a row belongs to. Two keys are equal when all their values are equal, numerics
// compared by value and case insensitive keys compared after case folding.
type GroupKey struct {
	Values  []common.Value
	encoded []byte
	hash    uint64
}

// ExtractGroupKey reads the key values of row. It fails with a NotComparable error if a value cannot be grouped on.
func ExtractGroupKey(row common.RowAccessor, keys []OrderKey) (GroupKey, error) {
	values := make([]common.Value, len(keys))
	var encoded []byte
	for i, key := range keys {
		v, err := row.ValueAt(key.Index)
		if err != nil {
			return GroupKey{}, err
		}
		var ok bool
		encoded, ok = common.KeyEncodeValue(encoded, v, key.CaseInsensitive)
		if !ok {
			return GroupKey{}, errors.NewNotComparableError(key.name(), fmt.Sprintf("cannot group on %s", common.TypeName(v)))
		}
		values[i] = v
	}
	return GroupKey{Values: values, encoded: encoded, hash: murmur3.Sum64(encoded)}, nil
}

func (g GroupKey) Equal(other GroupKey) bool {
	return g.hash == other.hash && bytes.Equal(g.encoded, other.encoded)
}

func (g GroupKey) Hash() uint64 {
	return g.hash
}

// group is the state of one GROUP BY bucket during a merge.
type group struct {
	key   GroupKey
	row   common.Row
	units *aggfuncs.UnitSet
}

// groupMap buckets groups by key hash. Groups are kept in insertion order.
type groupMap struct {
	buckets map[uint64][]*group
	groups  []*group
}

func newGroupMap() *groupMap {
	return &groupMap{buckets: map[uint64][]*group{}}
}

func (m *groupMap) get(key GroupKey) *group {
	for _, g := range m.buckets[key.hash] {
		if g.key.Equal(key) {
			return g
		}
	}
	return nil
}

func (m *groupMap) put(g *group) {
	m.buckets[g.key.hash] = append(m.buckets[g.key.hash], g)
	m.groups = append(m.groups, g)
}

func (m *groupMap) len() int {
	return len(m.groups)
}
