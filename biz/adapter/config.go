package adapter

import (
	"context"

	"doing_now/authdb/biz/schema"
)

// Supports lists the value kinds a backend stores natively. Anything unsupported is
// emulated by the transform pipeline.
type Supports struct {
	JSON       bool
	Dates      bool
	Booleans   bool
	NumericIDs bool
	UUIDs      bool
	Arrays     bool
}

// FieldTransform is a backend hook applied after the built-in coercions.
type FieldTransform func(ctx context.Context, v FieldValue) (any, error)

type FieldValue struct {
	Model     string
	Field     string
	Action    string
	Value     any
	Attribute schema.FieldAttribute
}

type DebugLogs struct {
	Enabled bool
	// Methods, when non-nil, enables logging per adapter method name and wins over Enabled.
	Methods map[string]bool
	// Capture buffers entries in memory instead of printing them.
	Capture bool
	Sink    LogSink
}

func (d DebugLogs) enabled(method string) bool {
	if d.Capture {
		return true
	}
	if d.Methods != nil {
		return d.Methods[method]
	}
	return d.Enabled
}

type Config struct {
	AdapterID   string
	AdapterName string
	UsePlural   bool

	Supports    Supports
	Transaction bool

	DisableIDGeneration bool
	CustomIDGenerator   func(model string) string

	// MapKeysTransformInput renames physical keys on the way in, e.g. id -> _id.
	// MapKeysTransformOutput is its inverse and is derived when left nil.
	MapKeysTransformInput  map[string]string
	MapKeysTransformOutput map[string]string

	CustomTransformInput  FieldTransform
	CustomTransformOutput FieldTransform

	DisableTransformInput  bool
	DisableTransformOutput bool

	DebugLogs DebugLogs
}

func (c Config) name() string {
	if c.AdapterName != "" {
		return c.AdapterName
	}
	return c.AdapterID
}

func (c Config) outputKeys() map[string]string {
	if c.MapKeysTransformOutput != nil {
		return c.MapKeysTransformOutput
	}
	if len(c.MapKeysTransformInput) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.MapKeysTransformInput))
	for k, v := range c.MapKeysTransformInput {
		out[v] = k
	}
	return out
}

type CreateSchemaParams struct {
	File   string
	Tables schema.DBSchema
}
