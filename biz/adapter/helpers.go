package adapter

import (
	"doing_now/authdb/biz/model/errs"
	"doing_now/authdb/biz/model/options"
	"doing_now/authdb/biz/schema"
	"doing_now/authdb/biz/util/id_gen"

	"github.com/google/uuid"
)

// Helpers resolves names, attributes and ids for one configured adapter. It is
// handed to the backend constructor and shared read-only by every pipeline stage.
type Helpers struct {
	config  Config
	options *options.Options
	schema  schema.DBSchema
	index   *schema.Index
	outKeys map[string]string
}

func newHelpers(cfg Config, opts *options.Options, s schema.DBSchema) *Helpers {
	return &Helpers{
		config:  cfg,
		options: opts,
		schema:  s,
		index:   schema.NewIndex(s, cfg.UsePlural),
		outKeys: cfg.outputKeys(),
	}
}

func (h *Helpers) Config() Config {
	return h.config
}

func (h *Helpers) Options() *options.Options {
	return h.options
}

// Schema is shared; callers must not modify it.
func (h *Helpers) Schema() schema.DBSchema {
	return h.schema
}

// DefaultModelName resolves a logical key, physical name or plural form to the
// logical model key.
func (h *Helpers) DefaultModelName(model string) (string, error) {
	key, ok := h.index.Model(model)
	if !ok {
		return "", errs.ModelNotFound.SetMsg("model " + model + " not found in schema")
	}
	return key, nil
}

// ModelName returns the physical table name of a model.
func (h *Helpers) ModelName(model string) (string, error) {
	key, err := h.DefaultModelName(model)
	if err != nil {
		return "", err
	}
	name := h.schema[key].ModelName
	if name == "" {
		name = key
	}
	if h.config.UsePlural {
		return name + "s", nil
	}
	return name, nil
}

// DefaultFieldName resolves a logical key or physical column name to the logical
// field key of the model.
func (h *Helpers) DefaultFieldName(model, field string) (string, error) {
	key, err := h.DefaultModelName(model)
	if err != nil {
		return "", err
	}
	f, ok := h.index.Field(key, field)
	if !ok {
		return "", errs.FieldNotFound.SetMsg("field " + field + " not found in model " + key)
	}
	return f, nil
}

// FieldName returns the physical column name of a field.
func (h *Helpers) FieldName(model, field string) (string, error) {
	key, err := h.DefaultModelName(model)
	if err != nil {
		return "", err
	}
	f, ok := h.index.Field(key, field)
	if !ok {
		return "", errs.FieldNotFound.SetMsg("field " + field + " not found in model " + key)
	}
	return h.schema[key].PhysicalFieldName(f), nil
}

// FieldAttributes returns the attribute of a field. The id field is synthesized
// from the id strategy.
func (h *Helpers) FieldAttributes(model, field string) (schema.FieldAttribute, error) {
	key, err := h.DefaultModelName(model)
	if err != nil {
		return schema.FieldAttribute{}, err
	}
	f, ok := h.index.Field(key, field)
	if !ok {
		return schema.FieldAttribute{}, errs.FieldNotFound.SetMsg("field " + field + " not found in model " + key)
	}
	if f == schema.IDField {
		return h.idAttribute(key), nil
	}
	return h.schema[key].Fields[f], nil
}

func (h *Helpers) idAttribute(model string) schema.FieldAttribute {
	attr := schema.FieldAttribute{Type: schema.TypeString}
	if id, ok := h.schema[model].Fields[schema.IDField]; ok {
		attr = id
	}
	if h.options.UseNumberID() {
		attr.Type = schema.TypeNumber
	}
	attr.DefaultValue = func() any {
		return h.generateID(model)
	}
	return attr
}

func (h *Helpers) generateID(model string) any {
	if h.config.DisableIDGeneration || h.options.UseNumberID() {
		return nil
	}
	db := h.options.Advanced.Database
	if db.GenerateIDFunc != nil {
		return db.GenerateIDFunc(model)
	}
	if h.config.CustomIDGenerator != nil {
		return h.config.CustomIDGenerator(model)
	}
	if db.GenerateID == options.GenerateIDUUID {
		if h.config.Supports.UUIDs {
			return nil
		}
		return uuid.NewString()
	}
	return id_gen.NewID()
}

// isNumericID reports whether the field holds an id under the numeric id scheme.
func (h *Helpers) isNumericID(field string, attr schema.FieldAttribute) bool {
	if !h.options.UseNumberID() {
		return false
	}
	return field == schema.IDField || attr.ReferencesID()
}

// fields lists the model's logical field keys with the synthesized id first.
func (h *Helpers) fields(model string) []string {
	keys := h.schema[model].SortedFieldKeys()
	out := make([]string, 0, len(keys)+1)
	out = append(out, schema.IDField)
	for _, k := range keys {
		if k != schema.IDField {
			out = append(out, k)
		}
	}
	return out
}

func (h *Helpers) physicalKey(model, field string) string {
	name := h.schema[model].PhysicalFieldName(field)
	if mapped, ok := h.config.MapKeysTransformInput[name]; ok {
		return mapped
	}
	return name
}

// outputKey is the key the backend's record uses for a field.
func (h *Helpers) outputKey(model, field string) string {
	name := h.schema[model].PhysicalFieldName(field)
	for stored, logical := range h.outKeys {
		if logical == name {
			return stored
		}
	}
	return name
}
