package adapter

import (
	"context"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

func (h *Helpers) selectFields(model string, fields []string) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		key, err := h.DefaultFieldName(model, f)
		if err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, nil
}

func (h *Helpers) physicalFields(model string, fields []string) []string {
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, h.physicalKey(model, f))
	}
	return out
}

// output transforms a backend record and, on the native join path, the joined
// rows the backend attached to it.
func (a *Adapter) output(ctx context.Context, res Record, model string, selects []string, plan *joinPlan) (Record, error) {
	if res == nil {
		return nil, nil
	}
	if a.h.config.DisableTransformOutput {
		return res, nil
	}
	out, err := a.h.TransformOutput(ctx, res, model, selects)
	if err != nil || plan == nil || !a.nativeJoins() {
		return out, err
	}
	for _, e := range plan.entries {
		joined, err := a.joinedOutput(ctx, res[e.physical], e)
		if err != nil {
			return nil, err
		}
		out[e.model] = joined
	}
	return out, nil
}

func (a *Adapter) joinedOutput(ctx context.Context, raw any, e joinEntry) (any, error) {
	rows := joinedRows(raw)
	if e.relation == OneToOne {
		if len(rows) == 0 {
			return nil, nil
		}
		rec, err := a.h.TransformOutput(ctx, rows[0], e.model, nil)
		if err != nil || rec == nil {
			return nil, err
		}
		return rec, nil
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := a.h.TransformOutput(ctx, row, e.model, nil)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

func joinedRows(raw any) []Record {
	switch v := raw.(type) {
	case nil:
		return nil
	case Record:
		return []Record{v}
	case map[string]any:
		return []Record{v}
	case []Record:
		return v
	case []map[string]any:
		out := make([]Record, 0, len(v))
		for _, m := range v {
			out = append(out, m)
		}
		return out
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			out = append(out, joinedRows(item)...)
		}
		return out
	}
	return nil
}

// fallbackJoins stitches related records onto base with one query per relation.
func (a *Adapter) fallbackJoins(ctx context.Context, base Record, plan *joinPlan) error {
	if base == nil || plan == nil || a.nativeJoins() {
		return nil
	}
	for _, e := range plan.entries {
		joined, err := a.fallbackJoin(ctx, base, plan.base, e)
		if err != nil {
			return err
		}
		base[e.model] = joined
	}
	return nil
}

func (a *Adapter) fallbackJoin(ctx context.Context, base Record, baseModel string, e joinEntry) (any, error) {
	key := e.from
	if a.h.config.DisableTransformOutput {
		key = a.h.outputKey(baseModel, e.from)
	}
	value, ok := base[key]
	if !ok || value == nil {
		if e.relation == OneToOne {
			return nil, nil
		}
		return []Record{}, nil
	}

	where := []Where{{Field: e.to, Value: value}}
	if e.relation == OneToOne {
		rec, err := a.FindOne(ctx, FindOneRequest{Model: e.model, Where: where})
		if err != nil {
			hlog.CtxErrorf(ctx, "[%s] join %s from %s failed, where: %+v, limit: %d, err: %v", a.h.config.name(), e.model, baseModel, where, e.limit, err)
			return nil, err
		}
		if rec == nil {
			return nil, nil
		}
		return rec, nil
	}

	recs, err := a.FindMany(ctx, FindManyRequest{Model: e.model, Where: where, Limit: e.limit})
	if err != nil {
		hlog.CtxErrorf(ctx, "[%s] join %s from %s failed, where: %+v, limit: %d, err: %v", a.h.config.name(), e.model, baseModel, where, e.limit, err)
		return nil, err
	}
	return recs, nil
}
