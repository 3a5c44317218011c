package adapter

import (
	"context"

	"doing_now/authdb/biz/schema"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// TransformInput converts a logical record into the physical record for action
// "create" or "update". Fields left unset are omitted unless a default or an
// update hook supplies a value.
func (h *Helpers) TransformInput(ctx context.Context, data Record, model, action string, forceAllowID bool) (Record, error) {
	key, err := h.DefaultModelName(model)
	if err != nil {
		return nil, err
	}

	out := make(Record, len(data))
	for _, field := range h.fields(key) {
		attr, err := h.FieldAttributes(key, field)
		if err != nil {
			return nil, err
		}

		value, present := data[field]
		if field == schema.IDField && action == ActionCreate && present && !forceAllowID {
			hlog.CtxWarnf(ctx, "[%s] create on %s carries an id without forceAllowId, the id is ignored", h.config.name(), key)
			value, present = nil, false
		}

		if !present {
			if action == ActionUpdate && attr.OnUpdate == nil {
				continue
			}
			if action == ActionCreate && !attr.HasDefault() && attr.Transform.Input == nil {
				continue
			}
		}

		if s, ok := value.(string); ok && attr.Type == schema.TypeDate {
			t, err := parseDate(s)
			if err != nil {
				hlog.CtxWarnf(ctx, "[%s] could not parse date %q for %s.%s: %v", h.config.name(), s, key, field, err)
			} else {
				value = t
			}
		}

		value, present = applyDefault(value, present, attr, action)

		if attr.Transform.Input != nil {
			value, err = attr.Transform.Input(ctx, value)
			if err != nil {
				return nil, err
			}
			present = present || value != nil
		}
		if !present {
			continue
		}

		if h.isNumericID(field, attr) {
			if value, err = toNumericID(value); err != nil {
				return nil, err
			}
		}
		if value, err = h.toStorage(attr, value); err != nil {
			return nil, err
		}
		if h.config.CustomTransformInput != nil {
			value, err = h.config.CustomTransformInput(ctx, FieldValue{
				Model:     key,
				Field:     field,
				Action:    action,
				Value:     value,
				Attribute: attr,
			})
			if err != nil {
				return nil, err
			}
		}
		out[h.physicalKey(key, field)] = value
	}
	return out, nil
}

// applyDefault substitutes defaultValue on create and onUpdate on update. The
// returned flag reports whether the field now carries a value.
func applyDefault(value any, present bool, attr schema.FieldAttribute, action string) (any, bool) {
	switch action {
	case ActionUpdate:
		if !present && attr.OnUpdate != nil {
			v := attr.OnUpdate()
			return v, v != nil
		}
	case ActionCreate:
		if attr.HasDefault() && (!present || (value == nil && attr.IsRequired())) {
			v := attr.ResolveDefault()
			return v, present || v != nil
		}
	}
	return value, present
}

// TransformOutput converts a physical record back to its logical shape. selects
// holds logical field keys; an empty list keeps every field.
func (h *Helpers) TransformOutput(ctx context.Context, data Record, model string, selects []string) (Record, error) {
	if data == nil {
		return nil, nil
	}
	key, err := h.DefaultModelName(model)
	if err != nil {
		return nil, err
	}

	out := make(Record, len(data))
	for _, field := range h.fields(key) {
		if len(selects) > 0 && !contains(selects, field) {
			continue
		}
		value, ok := data[h.outputKey(key, field)]
		if !ok {
			continue
		}
		attr, err := h.FieldAttributes(key, field)
		if err != nil {
			return nil, err
		}

		if attr.Transform.Output != nil {
			if value, err = attr.Transform.Output(ctx, value); err != nil {
				return nil, err
			}
		}
		if field == schema.IDField || attr.ReferencesID() {
			value = toStringID(value)
		}
		if value, err = h.fromStorage(attr, value); err != nil {
			return nil, err
		}
		if h.config.CustomTransformOutput != nil {
			value, err = h.config.CustomTransformOutput(ctx, FieldValue{
				Model:     key,
				Field:     field,
				Value:     value,
				Attribute: attr,
			})
			if err != nil {
				return nil, err
			}
		}
		out[field] = value
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
