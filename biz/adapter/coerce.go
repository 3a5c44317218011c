package adapter

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"doing_now/authdb/biz/model/errs"
	"doing_now/authdb/biz/schema"

	"github.com/bytedance/sonic"
	"github.com/spf13/cast"
)

// ISO-8601 with millisecond precision, always written in UTC.
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return cast.ToTimeE(s)
}

// sliceValues unpacks any slice or array into []any.
func sliceValues(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func toNumericID(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if items, ok := sliceValues(v); ok {
		out := make([]any, len(items))
		for i, item := range items {
			n, err := toNumericID(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	invalid := errs.InvalidNumericID.SetMsg(fmt.Sprintf("%v is not a numeric id", v))
	switch n := v.(type) {
	case string:
		// Canonical decimal only, so "010" or "0x1f" cannot alias another row.
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil || strconv.FormatInt(id, 10) != n {
			return nil, invalid
		}
		return id, nil
	case float32:
		return integralID(float64(n), invalid)
	case float64:
		return integralID(n, invalid)
	}
	id, err := cast.ToInt64E(v)
	if err != nil {
		return nil, invalid
	}
	return id, nil
}

func integralID(f float64, invalid errs.Error) (any, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, invalid
	}
	return int64(f), nil
}

func toStringID(v any) any {
	if v == nil {
		return nil
	}
	if items, ok := sliceValues(v); ok {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = cast.ToString(item)
		}
		return out
	}
	return cast.ToString(v)
}

// toStorage emulates the value kinds the backend lacks.
func (h *Helpers) toStorage(attr schema.FieldAttribute, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s := h.config.Supports
	if (attr.Type == schema.TypeJSON && !s.JSON) || (attr.Type.IsArray() && !s.Arrays) {
		b, err := sonic.ConfigStd.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	if t, ok := v.(time.Time); ok && !s.Dates {
		return formatDate(t), nil
	}
	if b, ok := v.(bool); ok && !s.Booleans {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return v, nil
}

// fromStorage reverses toStorage. Values already in their logical shape pass through.
func (h *Helpers) fromStorage(attr schema.FieldAttribute, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s := h.config.Supports
	switch {
	case attr.Type == schema.TypeJSON && !s.JSON:
		var out any
		return decodeJSON(v, &out), nil
	case attr.Type == schema.TypeStringArray && !s.Arrays:
		var out []string
		return decodeJSON(v, &out), nil
	case attr.Type == schema.TypeNumberArray && !s.Arrays:
		var out []float64
		return decodeJSON(v, &out), nil
	case attr.Type == schema.TypeDate && !s.Dates:
		str, ok := stringValue(v)
		if !ok {
			return v, nil
		}
		t, err := parseDate(str)
		if err != nil {
			return v, nil
		}
		return t, nil
	case attr.Type == schema.TypeBoolean && !s.Booleans:
		if _, ok := v.(bool); ok {
			return v, nil
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			return v, nil
		}
		return b, nil
	}
	return v, nil
}

// decodeJSON parses an emulated column into target. Rows the adapter did not
// write, or whose text does not fit target, come back as stored.
func decodeJSON[T any](v any, target *T) any {
	str, ok := stringValue(v)
	if !ok {
		return v
	}
	if err := sonic.ConfigStd.Unmarshal([]byte(str), target); err == nil {
		return *target
	}
	var loose any
	if err := sonic.ConfigStd.Unmarshal([]byte(str), &loose); err == nil {
		return loose
	}
	return v
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}
