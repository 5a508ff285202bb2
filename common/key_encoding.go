package common

import (
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

/*
Group keys and distinct value sets are compared by their encoded bytes, so two values must encode to the same
bytes exactly when they are equal for grouping purposes. Each element starts with a type tag. Numerics of any
representation share one tag and are encoded by their canonical decimal text, which makes int64 1, float64 1.0
and decimal 1.00 the same key. Variable length elements are length prefixed so concatenated keys cannot collide.
*/

const (
	tagNull byte = iota
	tagNumeric
	tagNonFinite
	tagString
	tagBytes
	tagTime
	tagBool
)

const SignBitMask uint64 = 1 << 63

func AppendUint32ToBufferBE(buffer []byte, v uint32) []byte {
	return append(buffer, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func AppendUint64ToBufferBE(buffer []byte, v uint64) []byte {
	return append(buffer, byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func KeyEncodeInt64(buffer []byte, val int64) []byte {
	uVal := uint64(val) ^ SignBitMask
	return AppendUint64ToBufferBE(buffer, uVal)
}

func KeyEncodeString(buffer []byte, val string) []byte {
	buffer = AppendUint32ToBufferBE(buffer, uint32(len(val)))
	return append(buffer, val...)
}

// KeyEncodeValue appends the canonical encoding of v to buffer. When fold is true strings are case folded first.
// ok is false if v has a type that cannot be part of a key.
func KeyEncodeValue(buffer []byte, v Value, fold bool) ([]byte, bool) {
	switch val := Normalize(v).(type) {
	case nil:
		return append(buffer, tagNull), true
	case int64:
		buffer = append(buffer, tagNumeric)
		return KeyEncodeString(buffer, strconv.FormatInt(val, 10)), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			buffer = append(buffer, tagNonFinite)
			return KeyEncodeString(buffer, strconv.FormatFloat(val, 'g', -1, 64)), true
		}
		buffer = append(buffer, tagNumeric)
		return KeyEncodeString(buffer, canonicalFloat(val)), true
	case decimal.Decimal:
		buffer = append(buffer, tagNumeric)
		return KeyEncodeString(buffer, val.String()), true
	case string:
		if fold {
			val = foldCase(val)
		}
		buffer = append(buffer, tagString)
		return KeyEncodeString(buffer, val), true
	case []byte:
		buffer = append(buffer, tagBytes)
		buffer = AppendUint32ToBufferBE(buffer, uint32(len(val)))
		return append(buffer, val...), true
	case time.Time:
		buffer = append(buffer, tagTime)
		buffer = KeyEncodeInt64(buffer, val.Unix())
		return AppendUint32ToBufferBE(buffer, uint32(val.Nanosecond())), true
	case bool:
		buffer = append(buffer, tagBool)
		if val {
			return append(buffer, 1), true
		}
		return append(buffer, 0), true
	default:
		return buffer, false
	}
}

func canonicalFloat(val float64) string {
	if val == math.Trunc(val) && val >= math.MinInt64 && val < math.MaxInt64 {
		return strconv.FormatInt(int64(val), 10)
	}
	return decimal.NewFromFloat(val).String()
}
