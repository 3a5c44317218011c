package memory

import (
	"reflect"
	"strings"
	"time"

	"doing_now/authdb/biz/adapter"

	"github.com/spf13/cast"
)

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// compare orders two stored values. ok is false when they are not comparable.
func compare(a, b any) (c int, ok bool) {
	switch {
	case isNumber(a) && isNumber(b):
		fa, fb := cast.ToFloat64(a), cast.ToFloat64(b)
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if ta, isTime := a.(time.Time); isTime {
		tb, err := cast.ToTimeE(b)
		if err != nil {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

func evaluate(row adapter.Record, w adapter.CleanedWhere) bool {
	v := row[w.Field]
	switch w.Operator {
	case adapter.OpEq, "":
		return equal(v, w.Value)
	case adapter.OpNe:
		return !equal(v, w.Value)
	case adapter.OpIn, adapter.OpNotIn:
		found := false
		items, _ := w.Value.([]any)
		for _, item := range items {
			if equal(v, item) {
				found = true
				break
			}
		}
		return found == (w.Operator == adapter.OpIn)
	case adapter.OpContains:
		return v != nil && strings.Contains(cast.ToString(v), cast.ToString(w.Value))
	case adapter.OpStartsWith:
		return v != nil && strings.HasPrefix(cast.ToString(v), cast.ToString(w.Value))
	case adapter.OpEndsWith:
		return v != nil && strings.HasSuffix(cast.ToString(v), cast.ToString(w.Value))
	}

	c, ok := compare(v, w.Value)
	if !ok {
		return false
	}
	switch w.Operator {
	case adapter.OpLt:
		return c < 0
	case adapter.OpLte:
		return c <= 0
	case adapter.OpGt:
		return c > 0
	case adapter.OpGte:
		return c >= 0
	}
	return false
}

// matches requires every AND clause and, when present, at least one OR clause.
func matches(row adapter.Record, where []adapter.CleanedWhere) bool {
	anyOr, hasOr := false, false
	for _, w := range where {
		ok := evaluate(row, w)
		if w.Connector == adapter.ConnectorOr {
			hasOr = true
			anyOr = anyOr || ok
			continue
		}
		if !ok {
			return false
		}
	}
	return !hasOr || anyOr
}
