package adapter

import (
	"fmt"

	"doing_now/authdb/biz/model/errs"
	"doing_now/authdb/biz/schema"
)

// TransformWhere resolves filters to physical names and storage values. It returns
// nil for an empty filter list.
func (h *Helpers) TransformWhere(model string, where []Where) ([]CleanedWhere, error) {
	if len(where) == 0 {
		return nil, nil
	}
	key, err := h.DefaultModelName(model)
	if err != nil {
		return nil, err
	}

	out := make([]CleanedWhere, 0, len(where))
	for _, w := range where {
		field, err := h.DefaultFieldName(key, w.Field)
		if err != nil {
			return nil, err
		}
		attr, err := h.FieldAttributes(key, field)
		if err != nil {
			return nil, err
		}

		op := w.Operator
		if op == "" {
			op = OpEq
		}
		connector := w.Connector
		if connector == "" {
			connector = ConnectorAnd
		}

		var value any
		if op == OpIn || op == OpNotIn {
			items, ok := sliceValues(w.Value)
			if !ok {
				return nil, errs.InvalidWhereValue.SetMsg(fmt.Sprintf("value of %s on %s.%s must be an array", op, key, field))
			}
			values := make([]any, len(items))
			for i, item := range items {
				if values[i], err = h.whereValue(field, attr, op, item); err != nil {
					return nil, err
				}
			}
			value = values
		} else if value, err = h.whereValue(field, attr, op, w.Value); err != nil {
			return nil, err
		}

		out = append(out, CleanedWhere{
			Field:     h.physicalKey(key, field),
			Value:     value,
			Operator:  op,
			Connector: connector,
		})
	}
	return out, nil
}

func (h *Helpers) whereValue(field string, attr schema.FieldAttribute, op Operator, v any) (any, error) {
	if h.isNumericID(field, attr) {
		return toNumericID(v)
	}
	// substring operators search the stored text as is
	if _, ok := v.(string); ok && (op == OpContains || op == OpStartsWith || op == OpEndsWith) {
		return v, nil
	}
	if s, ok := v.(string); ok && attr.Type == schema.TypeDate {
		if t, err := parseDate(s); err == nil {
			v = t
		}
	}
	return h.toStorage(attr, v)
}
