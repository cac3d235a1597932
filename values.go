package prospectdb

import (
	"fmt"
	"reflect"
	"time"
)

// NumberValue coerces a field value to float64. Reports false for
// non-numeric values.
func NumberValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return 0, false
	}
}

// TimeValue coerces a field value to time.Time. Strings are parsed as
// RFC 3339, then as plain dates (2006-01-02). Reports false otherwise.
func TimeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, true
		}
		if ts, err := time.Parse("2006-01-02", t); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// StringValue coerces a field value to its string form.
func StringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// CompareValues orders two field values. Numbers compare numerically across
// integer and float representations, dates chronologically, strings
// lexicographically. Reports false when the values are not mutually
// comparable.
func CompareValues(a, b any) (int, bool) {
	if af, ok := NumberValue(a); ok {
		if bf, ok := NumberValue(b); ok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	if at, ok := TimeValue(a); ok {
		if bt, ok := TimeValue(b); ok {
			switch {
			case at.Before(bt):
				return -1, true
			case at.After(bt):
				return 1, true
			default:
				return 0, true
			}
		}
		// a parsed as a date string; fall through to string ordering only
		// when b is a plain string too.
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1, true
			case as > bs:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	return 0, false
}

// compareOrdered is the range-operator ordering: numeric or date only.
// Non-comparable values fail the match rather than erroring.
func compareOrdered(a, b any) (int, bool) {
	if af, ok := NumberValue(a); ok {
		if bf, ok := NumberValue(b); ok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	if at, ok := TimeValue(a); ok {
		if bt, ok := TimeValue(b); ok {
			switch {
			case at.Before(bt):
				return -1, true
			case at.After(bt):
				return 1, true
			default:
				return 0, true
			}
		}
	}
	return 0, false
}

// equalValues implements structural equality with numeric and date
// normalization: 2 == 2.0, and equal instants compare equal regardless of
// time.Time vs RFC 3339 string representation.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := NumberValue(a); ok {
		bf, ok := NumberValue(b)
		return ok && af == bf
	}
	switch at := a.(type) {
	case time.Time:
		bt, ok := TimeValue(b)
		return ok && at.Equal(bt)
	case string:
		if bs, ok := b.(string); ok {
			return at == bs
		}
		if bt, ok := b.(time.Time); ok {
			as, ok := TimeValue(at)
			return ok && as.Equal(bt)
		}
		return false
	case bool:
		bb, ok := b.(bool)
		return ok && at == bb
	case Document:
		return equalMaps(at, b)
	case map[string]any:
		return equalMaps(at, b)
	case []any:
		bs, ok := b.([]any)
		if !ok || len(at) != len(bs) {
			return false
		}
		for i := range at {
			if !equalValues(at[i], bs[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func equalMaps(a map[string]any, b any) bool {
	var bm map[string]any
	switch bt := b.(type) {
	case Document:
		bm = bt
	case map[string]any:
		bm = bt
	default:
		return false
	}
	if len(a) != len(bm) {
		return false
	}
	for k, av := range a {
		bv, ok := bm[k]
		if !ok || !equalValues(av, bv) {
			return false
		}
	}
	return true
}
