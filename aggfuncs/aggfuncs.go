package aggfuncs

import (
	"fmt"
	"sync"

	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
)

type Kind int

const (
	Sum Kind = iota
	Count
	Max
	Min
	Avg
	DistinctCount
	DistinctSum
	DistinctAvg

	// FirstCustomKind is the lowest kind that can be passed to Register.
	FirstCustomKind Kind = 100
)

var kindNames = map[Kind]string{
	Sum:           "SUM",
	Count:         "COUNT",
	Max:           "MAX",
	Min:           "MIN",
	Avg:           "AVG",
	DistinctCount: "COUNT(DISTINCT)",
	DistinctSum:   "SUM(DISTINCT)",
	DistinctAvg:   "AVG(DISTINCT)",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if name, ok := customName(k); ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps an aggregate function name, as written in SQL, to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	lock.RLock()
	defer lock.RUnlock()
	for k, r := range registry {
		if r.name == name {
			return k, true
		}
	}
	return 0, false
}

// Descriptor describes one aggregate column of the merged result.
//
// The unit reads its input from SourcePositions when present, else from OutputPosition. AVG kinds need the
// position of a derived SUM column followed by the position of a derived COUNT column. A COUNT without source
// positions counts rows instead of adding partial counts.
type Descriptor struct {
	Kind            Kind
	OutputPosition  int
	SourcePositions []int
	Label           string
}

// IsDerived returns true for kinds that cannot be merged from the per shard value of their own output column.
func (d *Descriptor) IsDerived() bool {
	switch d.Kind {
	case Avg, DistinctCount, DistinctSum, DistinctAvg:
		return true
	default:
		return false
	}
}

func (d *Descriptor) columnName() string {
	if d.Label != "" {
		return d.Label
	}
	return fmt.Sprintf("#%d", d.OutputPosition)
}

func (d *Descriptor) inputPositions() []int {
	if len(d.SourcePositions) > 0 {
		return d.SourcePositions
	}
	if d.Kind == Count {
		return nil
	}
	return []int{d.OutputPosition}
}

func (d *Descriptor) validate() error {
	if d.OutputPosition < 0 {
		return errors.NewUnsupportedAggregationError(fmt.Sprintf("%s has negative output position", d.Kind))
	}
	if d.Kind == Avg && len(d.SourcePositions) != 2 {
		return errors.NewUnsupportedAggregationError(fmt.Sprintf("AVG %s requires a sum and a count position", d.columnName()))
	}
	for _, pos := range d.SourcePositions {
		if pos < 0 {
			return errors.NewUnsupportedAggregationError(fmt.Sprintf("%s has negative source position", d.Kind))
		}
	}
	return nil
}

// CustomUnit is an accumulator for a registered aggregation kind.
type CustomUnit interface {
	Merge(values []common.Value) error
	Result() (common.Value, error)
}

type CustomUnitFactory func(desc *Descriptor) CustomUnit

type registration struct {
	name    string
	factory CustomUnitFactory
}

var (
	lock     sync.RWMutex
	registry = map[Kind]registration{}
)

// Register installs a factory for an extension aggregation kind. It returns an error if kind is below
// FirstCustomKind or already registered.
func Register(kind Kind, name string, factory CustomUnitFactory) error {
	if kind < FirstCustomKind {
		return errors.Errorf("cannot register built in aggregation kind %d", kind)
	}
	lock.Lock()
	defer lock.Unlock()
	if _, exists := registry[kind]; exists {
		return errors.Errorf("aggregation kind %d already registered", kind)
	}
	registry[kind] = registration{name: name, factory: factory}
	return nil
}

// Unregister removes a registered kind. Used by tests.
func Unregister(kind Kind) {
	lock.Lock()
	defer lock.Unlock()
	delete(registry, kind)
}

func lookupCustom(kind Kind) (CustomUnitFactory, bool) {
	lock.RLock()
	defer lock.RUnlock()
	r, ok := registry[kind]
	return r.factory, ok
}

func customName(kind Kind) (string, bool) {
	lock.RLock()
	defer lock.RUnlock()
	r, ok := registry[kind]
	return r.name, ok
}
