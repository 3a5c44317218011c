// Package schema describes the logical tables of the authentication store and the
// alias index used to resolve logical and physical names.
package schema

import "context"

type FieldType string

const (
	TypeString      FieldType = "string"
	TypeNumber      FieldType = "number"
	TypeBoolean     FieldType = "boolean"
	TypeDate        FieldType = "date"
	TypeJSON        FieldType = "json"
	TypeStringArray FieldType = "string[]"
	TypeNumberArray FieldType = "number[]"
)

// IsArray reports whether values of this type are lists.
func (t FieldType) IsArray() bool {
	return t == TypeStringArray || t == TypeNumberArray
}

type Reference struct {
	Model    string
	Field    string
	OnDelete string
}

// Transform hooks rewrite a value on its way into or out of the backend. Either may be nil.
type Transform struct {
	Input  func(ctx context.Context, value any) (any, error)
	Output func(ctx context.Context, value any) (any, error)
}

type FieldAttribute struct {
	Type FieldType
	// Enum restricts a string field to a set of literals.
	Enum []string

	// Required and Returned default to true when nil.
	Required *bool
	Returned *bool

	// DefaultValue is either a literal or a func() any producer invoked on create.
	DefaultValue any
	// OnUpdate is invoked on update when the caller omits the field.
	OnUpdate func() any

	Transform  Transform
	References *Reference

	Unique    bool
	BigInt    bool
	Sortable  bool
	Index     bool
	FieldName string
}

func (f FieldAttribute) IsRequired() bool {
	return f.Required == nil || *f.Required
}

func (f FieldAttribute) IsReturned() bool {
	return f.Returned == nil || *f.Returned
}

func (f FieldAttribute) HasDefault() bool {
	return f.DefaultValue != nil
}

// ResolveDefault returns the literal default or the producer's result.
func (f FieldAttribute) ResolveDefault() any {
	if fn, ok := f.DefaultValue.(func() any); ok {
		return fn()
	}
	return f.DefaultValue
}

// ReferencesID reports whether the field is a foreign key onto another model's id.
func (f FieldAttribute) ReferencesID() bool {
	return f.References != nil && f.References.Field == "id"
}

func Bool(v bool) *bool {
	return &v
}
