// Package gormdb is the relational backend of the adapter factory, built on gorm
// and usable with the MySQL and SQLite dialects.
package gormdb

import (
	"context"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/model/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Config describes what the dialect stores natively. Booleans come back from both
// dialects as integers, so they are always emulated.
func Config(dialect string) adapter.Config {
	return adapter.Config{
		AdapterID:   "gorm",
		AdapterName: "Gorm Adapter (" + dialect + ")",
		Supports: adapter.Supports{
			Dates: dialect == "mysql",
		},
		Transaction: true,
	}
}

// NewFactory returns an adapter factory over db using the dialect's defaults.
func NewFactory(db *gorm.DB) adapter.Factory {
	return NewFactoryWithConfig(db, Config(db.Dialector.Name()))
}

func NewFactoryWithConfig(db *gorm.DB, cfg adapter.Config) adapter.Factory {
	return adapter.NewFactory(cfg, func(h *adapter.Helpers) (adapter.CustomAdapter, error) {
		return NewBackend(db, h), nil
	})
}

type Backend struct {
	db *gorm.DB
	h  *adapter.Helpers
}

var (
	_ adapter.CustomAdapter = (*Backend)(nil)
	_ adapter.Transactor    = (*Backend)(nil)
	_ adapter.SchemaCreator = (*Backend)(nil)
)

func NewBackend(db *gorm.DB, h *adapter.Helpers) *Backend {
	return &Backend{db: db, h: h}
}

func (b *Backend) idKey() string {
	if k, ok := b.h.Config().MapKeysTransformInput["id"]; ok {
		return k
	}
	return "id"
}

func (b *Backend) table(ctx context.Context, model string, where []adapter.CleanedWhere) *gorm.DB {
	tx := b.db.WithContext(ctx).Table(model)
	if conds := buildWhere(where); len(conds) > 0 {
		tx = tx.Clauses(clause.Where{Exprs: conds})
	}
	return tx
}

func (b *Backend) Create(ctx context.Context, p adapter.CreateParams) (adapter.Record, error) {
	data := make(map[string]any, len(p.Data))
	for k, v := range p.Data {
		data[k] = v
	}
	if err := b.db.WithContext(ctx).Table(p.Model).Create(data).Error; err != nil {
		return nil, wrapErr(err)
	}

	id, ok := p.Data[b.idKey()]
	if !ok {
		return project(p.Data, p.Select), nil
	}
	return b.FindOne(ctx, adapter.FindOneParams{
		Model:  p.Model,
		Where:  []adapter.CleanedWhere{{Field: b.idKey(), Value: id, Operator: adapter.OpEq, Connector: adapter.ConnectorAnd}},
		Select: p.Select,
	})
}

func (b *Backend) FindOne(ctx context.Context, p adapter.FindOneParams) (adapter.Record, error) {
	tx := b.table(ctx, p.Model, p.Where)
	if len(p.Select) > 0 {
		tx = tx.Select(p.Select)
	}
	var rows []map[string]any
	if err := tx.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	rec := adapter.Record(rows[0])
	if err := b.attachJoins(ctx, rec, p.Join); err != nil {
		return nil, err
	}
	return rec, nil
}

func (b *Backend) FindMany(ctx context.Context, p adapter.FindManyParams) ([]adapter.Record, error) {
	tx := b.table(ctx, p.Model, p.Where)
	if p.SortBy != nil {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: p.SortBy.Field},
			Desc:   p.SortBy.Direction == adapter.SortDesc,
		})
	}
	if p.Limit > 0 {
		tx = tx.Limit(p.Limit)
	}
	if p.Offset > 0 {
		tx = tx.Offset(p.Offset)
	}

	var rows []map[string]any
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]adapter.Record, 0, len(rows))
	for _, row := range rows {
		rec := adapter.Record(row)
		if err := b.attachJoins(ctx, rec, p.Join); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Update changes the first matching row and returns it as stored afterwards.
func (b *Backend) Update(ctx context.Context, p adapter.UpdateParams) (adapter.Record, error) {
	current, err := b.FindOne(ctx, adapter.FindOneParams{Model: p.Model, Where: p.Where, Select: []string{b.idKey()}})
	if err != nil || current == nil {
		return nil, err
	}
	byID := []adapter.CleanedWhere{{Field: b.idKey(), Value: current[b.idKey()], Operator: adapter.OpEq, Connector: adapter.ConnectorAnd}}
	if len(p.Update) > 0 {
		if err := b.table(ctx, p.Model, byID).Updates(map[string]any(p.Update)).Error; err != nil {
			return nil, wrapErr(err)
		}
	}
	return b.FindOne(ctx, adapter.FindOneParams{Model: p.Model, Where: byID})
}

func (b *Backend) UpdateMany(ctx context.Context, p adapter.UpdateParams) (int64, error) {
	if len(p.Update) == 0 {
		return 0, nil
	}
	tx := b.table(ctx, p.Model, p.Where)
	if len(p.Where) == 0 {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	res := tx.Updates(map[string]any(p.Update))
	if res.Error != nil {
		return 0, wrapErr(res.Error)
	}
	return res.RowsAffected, nil
}

func (b *Backend) Delete(ctx context.Context, p adapter.DeleteParams) error {
	_, err := b.DeleteMany(ctx, p)
	return err
}

func (b *Backend) DeleteMany(ctx context.Context, p adapter.DeleteParams) (int64, error) {
	tx := b.table(ctx, p.Model, p.Where)
	if len(p.Where) == 0 {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	res := tx.Delete(map[string]any{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (b *Backend) Count(ctx context.Context, p adapter.CountParams) (int64, error) {
	var n int64
	if err := b.table(ctx, p.Model, p.Where).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx adapter.CustomAdapter) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Backend{db: tx, h: b.h})
	})
}

// attachJoins loads joined rows with one query per relation.
func (b *Backend) attachJoins(ctx context.Context, rec adapter.Record, join adapter.JoinConfig) error {
	for model, desc := range join {
		value, ok := rec[desc.On.From]
		if !ok || value == nil {
			if desc.Relation == adapter.OneToMany {
				rec[model] = []adapter.Record{}
			}
			continue
		}

		var rows []map[string]any
		where := []adapter.CleanedWhere{{Field: desc.On.To, Value: value, Operator: adapter.OpEq}}
		tx := b.table(ctx, model, where)
		if desc.Limit > 0 {
			tx = tx.Limit(desc.Limit)
		}
		if err := tx.Find(&rows).Error; err != nil {
			return err
		}
		if desc.Relation == adapter.OneToOne {
			if len(rows) > 0 {
				rec[model] = adapter.Record(rows[0])
			}
			continue
		}
		related := make([]adapter.Record, 0, len(rows))
		for _, row := range rows {
			related = append(related, row)
		}
		rec[model] = related
	}
	return nil
}

func project(data adapter.Record, fields []string) adapter.Record {
	out := make(adapter.Record, len(data))
	for k, v := range data {
		if len(fields) == 0 || contains(fields, k) {
			out[k] = v
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func wrapErr(err error) error {
	if errs.IsDuplicatedErr(err) {
		return errs.DuplicateKey.SetErr(err)
	}
	return err
}
