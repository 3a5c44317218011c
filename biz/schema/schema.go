package schema

import "sort"

// IDField is the logical key of every table's primary key.
const IDField = "id"

type Table struct {
	ModelName         string
	Fields            map[string]FieldAttribute
	DisableMigrations bool
	Order             int
}

// DBSchema maps logical model keys to their table definitions.
type DBSchema map[string]Table

// SortedFieldKeys returns the table's field keys in a stable order.
func (t Table) SortedFieldKeys() []string {
	keys := make([]string, 0, len(t.Fields))
	for k := range t.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PhysicalFieldName returns the column override or the logical key.
func (t Table) PhysicalFieldName(key string) string {
	if f, ok := t.Fields[key]; ok && f.FieldName != "" {
		return f.FieldName
	}
	return key
}

// Clone copies the table map and each field map; attribute values are copied by value.
func (s DBSchema) Clone() DBSchema {
	out := make(DBSchema, len(s))
	for k, t := range s {
		fields := make(map[string]FieldAttribute, len(t.Fields))
		for fk, f := range t.Fields {
			fields[fk] = f
		}
		t.Fields = fields
		out[k] = t
	}
	return out
}

// SortedKeys orders tables by Order, then by key.
func (s DBSchema) SortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, oj := s[keys[i]].Order, s[keys[j]].Order
		if oi != oj {
			return oi < oj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Index resolves any accepted alias of a model or field to its logical key in O(1).
// It is built once per schema and never mutated afterwards.
type Index struct {
	usePlural bool
	models    map[string]string
	fields    map[string]map[string]string
}

// NewIndex precomputes the aliases. Lookup precedence, highest first: logical key,
// logical key with a trailing "s" (plural mode), physical model name, physical model
// name with a trailing "s" (plural mode).
func NewIndex(s DBSchema, usePlural bool) *Index {
	ix := &Index{
		usePlural: usePlural,
		models:    make(map[string]string, len(s)*4),
		fields:    make(map[string]map[string]string, len(s)),
	}

	keys := s.SortedKeys()
	put := func(alias, key string) {
		if alias != "" {
			ix.models[alias] = key
		}
	}
	// lower precedence first, later writes win
	if usePlural {
		for _, k := range keys {
			put(s[k].ModelName+"s", k)
		}
	}
	for _, k := range keys {
		put(s[k].ModelName, k)
	}
	if usePlural {
		for _, k := range keys {
			put(k+"s", k)
		}
	}
	for _, k := range keys {
		put(k, k)
	}

	for _, k := range keys {
		t := s[k]
		aliases := make(map[string]string, len(t.Fields)*2+2)
		for fk, f := range t.Fields {
			if f.FieldName != "" {
				aliases[f.FieldName] = fk
			}
		}
		for fk := range t.Fields {
			aliases[fk] = fk
		}
		aliases[IDField] = IDField
		aliases["_id"] = IDField
		ix.fields[k] = aliases
	}
	return ix
}

// Model returns the logical key for a logical key, physical name or plural form.
func (ix *Index) Model(name string) (string, bool) {
	k, ok := ix.models[name]
	return k, ok
}

// Field returns the logical field key within a logical model.
func (ix *Index) Field(model, name string) (string, bool) {
	aliases, ok := ix.fields[model]
	if !ok {
		return "", false
	}
	k, ok := aliases[name]
	return k, ok
}
