package gormdb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/model/storage"
	"doing_now/authdb/biz/schema"
	"doing_now/authdb/biz/schema/registry"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"
)

const DefaultSchemaFile = "auth-schema.yaml"

var models = map[string]any{
	registry.ModelUser:         &storage.UserRecord{},
	registry.ModelSession:      &storage.SessionRecord{},
	registry.ModelAccount:      &storage.AccountRecord{},
	registry.ModelVerification: &storage.VerificationRecord{},
	registry.ModelRateLimit:    &storage.RateLimitRecord{},
}

type manifestColumn struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Required   bool   `yaml:"required,omitempty"`
	Unique     bool   `yaml:"unique,omitempty"`
	Index      bool   `yaml:"index,omitempty"`
	References string `yaml:"references,omitempty"`
	OnDelete   string `yaml:"onDelete,omitempty"`
}

type manifestTable struct {
	Model   string           `yaml:"model"`
	Table   string           `yaml:"table"`
	Columns []manifestColumn `yaml:"columns"`
}

type manifest struct {
	Adapter string          `yaml:"adapter"`
	Tables  []manifestTable `yaml:"tables"`
}

// CreateSchema renders the tables as a YAML manifest of physical names and column types.
func (b *Backend) CreateSchema(_ context.Context, p adapter.CreateSchemaParams) (*adapter.SchemaFile, error) {
	m := manifest{Adapter: b.h.Config().AdapterID}
	for _, key := range orderedKeys(p.Tables) {
		t := p.Tables[key]
		if t.DisableMigrations {
			continue
		}
		table, err := b.h.ModelName(key)
		if err != nil {
			return nil, err
		}
		mt := manifestTable{Model: key, Table: table, Columns: []manifestColumn{{Name: "id", Type: b.columnType("id", false), Required: true, Unique: true}}}
		for _, field := range t.SortedFieldKeys() {
			attr := t.Fields[field]
			col := manifestColumn{
				Name:     t.PhysicalFieldName(field),
				Type:     b.columnType(string(attr.Type), attr.BigInt),
				Required: attr.IsRequired(),
				Unique:   attr.Unique,
				Index:    attr.Index,
			}
			if ref := attr.References; ref != nil {
				refTable, err := b.h.ModelName(ref.Model)
				if err != nil {
					return nil, err
				}
				refField, err := b.h.FieldName(ref.Model, ref.Field)
				if err != nil {
					return nil, err
				}
				col.References = refTable + "." + refField
				col.OnDelete = ref.OnDelete
			}
			mt.Columns = append(mt.Columns, col)
		}
		m.Tables = append(m.Tables, mt)
	}

	code, err := yaml.Marshal(m)
	if err != nil {
		return nil, err
	}
	path := p.File
	if path == "" {
		path = DefaultSchemaFile
	}
	return &adapter.SchemaFile{Code: string(code), Path: path, Overwrite: true}, nil
}

func (b *Backend) columnType(fieldType string, bigInt bool) string {
	switch fieldType {
	case "id":
		if b.h.Options().UseNumberID() {
			return "bigint"
		}
		return "varchar(64)"
	case "number":
		if bigInt {
			return "bigint"
		}
		return "integer"
	case "boolean":
		return "boolean"
	case "date":
		if b.h.Config().Supports.Dates {
			return "datetime"
		}
		return "varchar(32)"
	case "json", "string[]", "number[]":
		return "text"
	}
	return "varchar(255)"
}

func orderedKeys(tables schema.DBSchema) []string {
	keys := make([]string, 0, len(tables))
	for k := range tables {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, oj := tables[keys[i]].Order, tables[keys[j]].Order
		if oi != oj {
			return oi < oj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Migrate creates the core tables under their configured physical names. Tables
// whose columns no longer line up with the bundled models are left to the schema
// manifest and reported.
func Migrate(ctx context.Context, db *gorm.DB, h *adapter.Helpers) error {
	tables := h.Schema()
	cache := &sync.Map{}
	for _, key := range orderedKeys(tables) {
		model, ok := models[key]
		if !ok || tables[key].DisableMigrations {
			continue
		}
		physical, err := h.ModelName(key)
		if err != nil {
			return err
		}
		if missing := missingColumns(model, tables[key], cache, db.NamingStrategy); len(missing) > 0 {
			hlog.CtxWarnf(ctx, "skip migrating %s, columns not covered by the bundled model: %v", physical, missing)
			continue
		}
		if err := db.WithContext(ctx).Table(physical).AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %s: %w", physical, err)
		}
	}
	return nil
}

func missingColumns(model any, t schema.Table, cache *sync.Map, namer gormschema.Namer) []string {
	parsed, err := gormschema.Parse(model, cache, namer)
	if err != nil {
		return []string{err.Error()}
	}
	var missing []string
	for _, field := range t.SortedFieldKeys() {
		col := t.PhysicalFieldName(field)
		if _, ok := parsed.FieldsByDBName[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
