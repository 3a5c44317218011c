package adapter

import (
	"fmt"
	"sort"

	"doing_now/authdb/biz/model/errs"
	"doing_now/authdb/biz/schema"
)

// joinEntry is one resolved relation, in logical names.
type joinEntry struct {
	model    string
	physical string
	from     string
	to       string
	limit    int
	relation Relation
}

type joinPlan struct {
	base    string
	entries []joinEntry
	config  JoinConfig
}

// TransformJoin resolves a join request against base model. The returned select
// list includes the base field needed to stitch each relation.
func (h *Helpers) TransformJoin(model string, join map[string]JoinOption, selects []string) (JoinConfig, []string, error) {
	plan, selects, err := h.planJoin(model, join, selects)
	if err != nil || plan == nil {
		return nil, selects, err
	}
	return plan.config, selects, nil
}

func (h *Helpers) planJoin(model string, join map[string]JoinOption, selects []string) (*joinPlan, []string, error) {
	if len(join) == 0 {
		return nil, selects, nil
	}
	base, err := h.DefaultModelName(model)
	if err != nil {
		return nil, nil, err
	}

	requested := make([]string, 0, len(join))
	for name := range join {
		requested = append(requested, name)
	}
	sort.Strings(requested)

	plan := &joinPlan{base: base, config: make(JoinConfig, len(join))}
	for _, name := range requested {
		joined, err := h.DefaultModelName(name)
		if err != nil {
			return nil, nil, err
		}
		e, err := h.resolveRelation(base, joined)
		if err != nil {
			return nil, nil, err
		}

		if e.relation == OneToOne {
			e.limit = 1
		} else if e.limit = join[name].Limit; e.limit <= 0 {
			e.limit = h.options.FindManyLimit()
		}
		if e.physical, err = h.ModelName(joined); err != nil {
			return nil, nil, err
		}
		if len(selects) > 0 && !contains(selects, e.from) {
			selects = append(selects, e.from)
		}

		plan.entries = append(plan.entries, e)
		plan.config[e.physical] = JoinDescriptor{
			On:       JoinOn{From: h.physicalKey(base, e.from), To: h.physicalKey(joined, e.to)},
			Limit:    e.limit,
			Relation: e.relation,
		}
	}
	return plan, selects, nil
}

// resolveRelation finds the single foreign key linking base and joined, looking
// first at the joined model's fields and then at the base model's.
func (h *Helpers) resolveRelation(base, joined string) (joinEntry, error) {
	var found []joinEntry

	for _, fk := range h.schema[joined].SortedFieldKeys() {
		ref := h.schema[joined].Fields[fk].References
		if ref == nil || h.referencedModel(ref) != base {
			continue
		}
		found = append(found, joinEntry{model: joined, from: h.referencedField(base, ref), to: fk})
	}
	for _, fk := range h.schema[base].SortedFieldKeys() {
		ref := h.schema[base].Fields[fk].References
		if ref == nil || h.referencedModel(ref) != joined {
			continue
		}
		found = append(found, joinEntry{model: joined, from: fk, to: h.referencedField(joined, ref)})
	}

	switch {
	case len(found) == 0:
		return joinEntry{}, errs.JoinForeignKeyMissing.SetMsg(fmt.Sprintf("no foreign key found between %s and %s", base, joined))
	case len(found) > 1:
		return joinEntry{}, errs.JoinForeignKeyMultiple.SetMsg(fmt.Sprintf("multiple foreign keys found between %s and %s", base, joined))
	}

	e := found[0]
	e.relation = OneToMany
	if e.to == schema.IDField || h.schema[joined].Fields[e.to].Unique {
		e.relation = OneToOne
	}
	return e, nil
}

func (h *Helpers) referencedModel(ref *schema.Reference) string {
	if key, ok := h.index.Model(ref.Model); ok {
		return key
	}
	return ref.Model
}

func (h *Helpers) referencedField(model string, ref *schema.Reference) string {
	if key, ok := h.index.Field(model, ref.Field); ok {
		return key
	}
	return ref.Field
}
