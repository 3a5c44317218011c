package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSchema() DBSchema {
	return DBSchema{
		"user": {ModelName: "member", Order: 1, Fields: map[string]FieldAttribute{
			"email": {Type: TypeString, FieldName: "email_address"},
			"name":  {Type: TypeString},
		}},
		"session": {ModelName: "session", Order: 2, Fields: map[string]FieldAttribute{
			"userId": {Type: TypeString, References: &Reference{Model: "user", Field: "id"}},
		}},
		// a model whose logical key collides with another model's plural form
		"sessions": {ModelName: "sessions", Order: 3, Fields: map[string]FieldAttribute{}},
	}
}

func TestIndex_Model(t *testing.T) {
	ix := NewIndex(testSchema(), true)

	cases := map[string]string{
		"user":     "user",
		"users":    "user",
		"member":   "user",
		"members":  "user",
		"session":  "session",
		"sessions": "sessions",
	}
	for alias, want := range cases {
		got, ok := ix.Model(alias)
		assert.True(t, ok, alias)
		assert.Equal(t, want, got, alias)
	}

	_, ok := ix.Model("account")
	assert.False(t, ok)
}

func TestIndex_ModelSingular(t *testing.T) {
	ix := NewIndex(testSchema(), false)

	_, ok := ix.Model("members")
	assert.False(t, ok)
	got, ok := ix.Model("member")
	assert.True(t, ok)
	assert.Equal(t, "user", got)
}

func TestIndex_Field(t *testing.T) {
	ix := NewIndex(testSchema(), false)

	for _, alias := range []string{"email", "email_address"} {
		got, ok := ix.Field("user", alias)
		assert.True(t, ok)
		assert.Equal(t, "email", got)
	}
	got, ok := ix.Field("user", "_id")
	assert.True(t, ok)
	assert.Equal(t, IDField, got)

	_, ok = ix.Field("user", "nope")
	assert.False(t, ok)
	_, ok = ix.Field("nope", "id")
	assert.False(t, ok)
}

func TestDBSchema_CloneAndOrder(t *testing.T) {
	s := testSchema()
	c := s.Clone()
	delete(c, "session")
	c["user"].Fields["extra"] = FieldAttribute{Type: TypeNumber}

	assert.Contains(t, s, "session")
	assert.NotContains(t, s["user"].Fields, "extra")
	assert.Equal(t, []string{"user", "session", "sessions"}, s.SortedKeys())
	assert.Equal(t, []string{"email", "name"}, s["user"].SortedFieldKeys())
	assert.Equal(t, "email_address", s["user"].PhysicalFieldName("email"))
	assert.Equal(t, "name", s["user"].PhysicalFieldName("name"))
}

func TestFieldAttribute(t *testing.T) {
	calls := 0
	f := FieldAttribute{DefaultValue: func() any { calls++; return calls }}
	assert.True(t, f.IsRequired())
	assert.True(t, f.IsReturned())
	assert.True(t, f.HasDefault())
	assert.Equal(t, 1, f.ResolveDefault())
	assert.Equal(t, 2, f.ResolveDefault())

	lit := FieldAttribute{DefaultValue: false, Required: Bool(false), Returned: Bool(false)}
	assert.Equal(t, false, lit.ResolveDefault())
	assert.False(t, lit.IsRequired())
	assert.False(t, lit.IsReturned())
	assert.False(t, lit.ReferencesID())
	assert.True(t, TypeStringArray.IsArray())
	assert.False(t, TypeJSON.IsArray())
}
