package common

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Value is a single column value read from a shard cursor. nil is SQL NULL. See Normalize for the supported
// dynamic types.
type Value = interface{}

// foldCase case folds s for case insensitive comparison. A cases.Caser is stateful, so one is made per call.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// Normalize maps the Go representations a driver may hand us onto the small set of types the merge engine
// works with: int64, float64, decimal.Decimal, string, []byte, time.Time and bool.
func Normalize(v Value) Value {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint:
		return normalizeUint64(uint64(val))
	case uint64:
		return normalizeUint64(val)
	case float32:
		return float64(val)
	case *decimal.Decimal:
		if val == nil {
			return nil
		}
		return *val
	default:
		return v
	}
}

func normalizeUint64(val uint64) Value {
	if val > math.MaxInt64 {
		return decimal.NewFromBigInt(new(big.Int).SetUint64(val), 0)
	}
	return int64(val)
}

func isNumeric(v Value) bool {
	switch v.(type) {
	case int64, float64, decimal.Decimal:
		return true
	default:
		return false
	}
}

// Compare returns -1, 0 or 1 as a is less than, equal to or greater than b. Numeric values of different
// representations are compared by value. ok is false when the two values cannot be ordered against each other.
// Neither value may be nil.
func Compare(a, b Value) (res int, ok bool) {
	return compare(Normalize(a), Normalize(b), false)
}

// CompareFold is Compare with strings compared under Unicode case folding.
func CompareFold(a, b Value) (res int, ok bool) {
	return compare(Normalize(a), Normalize(b), true)
}

//nolint:gocyclo
func compare(a, b Value, fold bool) (int, bool) {
	if isNumeric(a) && isNumeric(b) {
		return compareNumeric(a, b)
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		if fold {
			return strings.Compare(foldCase(av), foldCase(bv)), true
		}
		return strings.Compare(av, bv), true
	case []byte:
		bv, ok := b.([]byte)
		if !ok {
			return 0, false
		}
		return bytes.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		default:
			return 0, true
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		if !av {
			return -1, true
		}
		return 1, true
	default:
		return 0, false
	}
}

func compareNumeric(a, b Value) (int, bool) {
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return compareInt64(av, bv), true
		case float64:
			return compareFloat64(float64(av), bv), true
		case decimal.Decimal:
			return decimal.NewFromInt(av).Cmp(bv), true
		}
	case float64:
		switch bv := b.(type) {
		case int64:
			return compareFloat64(av, float64(bv)), true
		case float64:
			return compareFloat64(av, bv), true
		case decimal.Decimal:
			if !isFinite(av) {
				return compareFloat64(av, decimalToFloat(bv)), true
			}
			return decimal.NewFromFloat(av).Cmp(bv), true
		}
	case decimal.Decimal:
		switch bv := b.(type) {
		case int64:
			return av.Cmp(decimal.NewFromInt(bv)), true
		case float64:
			if !isFinite(bv) {
				return compareFloat64(decimalToFloat(av), bv), true
			}
			return av.Cmp(decimal.NewFromFloat(bv)), true
		case decimal.Decimal:
			return av.Cmp(bv), true
		}
	}
	return 0, false
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareFloat64 orders NaN below every other value, including -Inf, so the order stays total.
func compareFloat64(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Add returns the sum of two non-null numeric values. int64 overflow promotes the result to a decimal, a float
// operand makes the result a float unless the other operand is a decimal. A decimal plus an infinite or NaN float
// is a float, as decimals cannot hold those. ok is false for non-numeric operands.
func Add(a, b Value) (Value, bool) {
	a, b = Normalize(a), Normalize(b)
	if !isNumeric(a) || !isNumeric(b) {
		return nil, false
	}
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			sum := av + bv
			if (sum > av) == (bv > 0) {
				return sum, true
			}
			return decimal.NewFromInt(av).Add(decimal.NewFromInt(bv)), true
		case float64:
			return float64(av) + bv, true
		}
	case float64:
		switch bv := b.(type) {
		case int64:
			return av + float64(bv), true
		case float64:
			return av + bv, true
		}
	}
	if af, ok := a.(float64); ok && !isFinite(af) {
		return af + decimalToFloat(ToDecimal(b)), true
	}
	if bf, ok := b.(float64); ok && !isFinite(bf) {
		return decimalToFloat(ToDecimal(a)) + bf, true
	}
	return ToDecimal(a).Add(ToDecimal(b)), true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// avgScale is the number of fraction digits kept when dividing exact values.
const avgScale = 4

// Divide divides a non-null numeric sum by a non-zero count. Exact operands give a decimal rounded half up to
// four fraction digits, a float operand gives a float.
func Divide(sum Value, count int64) (Value, bool) {
	sum = Normalize(sum)
	switch sv := sum.(type) {
	case float64:
		return sv / float64(count), true
	case int64, decimal.Decimal:
		return ToDecimal(sv).DivRound(decimal.NewFromInt(count), avgScale), true
	default:
		return nil, false
	}
}

// ToDecimal converts a normalized numeric value to a decimal. It panics on non-numeric input and on infinite or
// NaN floats.
func ToDecimal(v Value) decimal.Decimal {
	switch val := v.(type) {
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case decimal.Decimal:
		return val
	default:
		panic(fmt.Sprintf("not a numeric value %T", v))
	}
}

// ToInt64 converts an integral value to int64. ok is false for nil, non-numeric or fractional values.
func ToInt64(v Value) (int64, bool) {
	switch val := Normalize(v).(type) {
	case int64:
		return val, true
	case float64:
		if val != math.Trunc(val) || val > math.MaxInt64 || val < math.MinInt64 {
			return 0, false
		}
		return int64(val), true
	case decimal.Decimal:
		i := val.IntPart()
		if !decimal.NewFromInt(i).Equal(val) {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// TypeName describes the dynamic type of a value for error messages.
func TypeName(v Value) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%T", v)
}
