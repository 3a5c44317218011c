// Package memory is an in-process backend for the adapter factory. It is meant
// for tests and local development; rows live only as long as the Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/model/options"

	"github.com/google/uuid"
)

// Store holds rows keyed by physical table name.
type Store struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	tables map[string][]adapter.Record
	serial int64
}

func NewStore() *Store {
	return &Store{tables: make(map[string][]adapter.Record)}
}

// Rows returns a copy of a table's rows as stored.
func (s *Store) Rows(table string) []adapter.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]adapter.Record, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, copyRecord(r))
	}
	return out
}

func (s *Store) snapshot() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tables := make(map[string][]adapter.Record, len(s.tables))
	for name, rows := range s.tables {
		cp := make([]adapter.Record, 0, len(rows))
		for _, r := range rows {
			cp = append(cp, copyRecord(r))
		}
		tables[name] = cp
	}
	return &Store{tables: tables, serial: s.serial}
}

func (s *Store) restore(from *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = from.tables
	s.serial = from.serial
}

func DefaultConfig() adapter.Config {
	return adapter.Config{
		AdapterID:   "memory",
		AdapterName: "Memory Adapter",
		Supports: adapter.Supports{
			Dates:      true,
			Booleans:   true,
			NumericIDs: true,
		},
		Transaction: true,
	}
}

// NewFactory returns an adapter factory storing rows in store.
func NewFactory(store *Store, cfg adapter.Config) adapter.Factory {
	return adapter.NewFactory(cfg, func(h *adapter.Helpers) (adapter.CustomAdapter, error) {
		return NewBackend(store, h), nil
	})
}

type Backend struct {
	store *Store
	h     *adapter.Helpers
}

func NewBackend(store *Store, h *adapter.Helpers) *Backend {
	return &Backend{store: store, h: h}
}

var (
	_ adapter.CustomAdapter = (*Backend)(nil)
	_ adapter.Transactor    = (*Backend)(nil)
)

func (b *Backend) idKey() string {
	if k, ok := b.h.Config().MapKeysTransformInput["id"]; ok {
		return k
	}
	return "id"
}

func (b *Backend) newID() any {
	if b.h.Options().Advanced.Database.GenerateID == options.GenerateIDUUID {
		return uuid.NewString()
	}
	b.store.serial++
	return b.store.serial
}

func (b *Backend) Create(_ context.Context, p adapter.CreateParams) (adapter.Record, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	row := copyRecord(p.Data)
	if v, ok := row[b.idKey()]; !ok || v == nil {
		row[b.idKey()] = b.newID()
	}
	b.store.tables[p.Model] = append(b.store.tables[p.Model], row)
	return project(row, p.Select), nil
}

func (b *Backend) FindOne(_ context.Context, p adapter.FindOneParams) (adapter.Record, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()

	for _, row := range b.store.tables[p.Model] {
		if matches(row, p.Where) {
			out := project(row, p.Select)
			b.attachJoins(out, row, p.Join)
			return out, nil
		}
	}
	return nil, nil
}

func (b *Backend) FindMany(_ context.Context, p adapter.FindManyParams) ([]adapter.Record, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()

	var rows []adapter.Record
	for _, row := range b.store.tables[p.Model] {
		if matches(row, p.Where) {
			rows = append(rows, row)
		}
	}
	if p.SortBy != nil {
		field, desc := p.SortBy.Field, p.SortBy.Direction == adapter.SortDesc
		sort.SliceStable(rows, func(i, j int) bool {
			c, _ := compare(rows[i][field], rows[j][field])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	rows = page(rows, p.Offset, p.Limit)

	out := make([]adapter.Record, 0, len(rows))
	for _, row := range rows {
		rec := copyRecord(row)
		b.attachJoins(rec, row, p.Join)
		out = append(out, rec)
	}
	return out, nil
}

func (b *Backend) Update(_ context.Context, p adapter.UpdateParams) (adapter.Record, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	for _, row := range b.store.tables[p.Model] {
		if matches(row, p.Where) {
			for k, v := range p.Update {
				row[k] = v
			}
			return copyRecord(row), nil
		}
	}
	return nil, nil
}

func (b *Backend) UpdateMany(_ context.Context, p adapter.UpdateParams) (int64, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	var n int64
	for _, row := range b.store.tables[p.Model] {
		if matches(row, p.Where) {
			for k, v := range p.Update {
				row[k] = v
			}
			n++
		}
	}
	return n, nil
}

func (b *Backend) Delete(_ context.Context, p adapter.DeleteParams) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	rows := b.store.tables[p.Model]
	for i, row := range rows {
		if matches(row, p.Where) {
			b.store.tables[p.Model] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (b *Backend) DeleteMany(_ context.Context, p adapter.DeleteParams) (int64, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	rows := b.store.tables[p.Model]
	kept := make([]adapter.Record, 0, len(rows))
	for _, row := range rows {
		if !matches(row, p.Where) {
			kept = append(kept, row)
		}
	}
	b.store.tables[p.Model] = kept
	return int64(len(rows) - len(kept)), nil
}

func (b *Backend) Count(_ context.Context, p adapter.CountParams) (int64, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()

	var n int64
	for _, row := range b.store.tables[p.Model] {
		if matches(row, p.Where) {
			n++
		}
	}
	return n, nil
}

// WithTransaction runs fn against a snapshot and publishes it only when fn
// succeeds. Transactions are serialized; writes made outside a transaction
// while it runs are overwritten by its commit.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx adapter.CustomAdapter) error) error {
	b.store.txMu.Lock()
	defer b.store.txMu.Unlock()

	snap := b.store.snapshot()
	if err := fn(ctx, &Backend{store: snap, h: b.h}); err != nil {
		return err
	}
	b.store.restore(snap)
	return nil
}

func (b *Backend) attachJoins(out, row adapter.Record, join adapter.JoinConfig) {
	for model, desc := range join {
		value, ok := row[desc.On.From]
		var related []adapter.Record
		if ok && value != nil {
			for _, r := range b.store.tables[model] {
				if equal(r[desc.On.To], value) {
					related = append(related, copyRecord(r))
					if desc.Limit > 0 && len(related) >= desc.Limit {
						break
					}
				}
			}
		}
		if desc.Relation == adapter.OneToOne {
			if len(related) > 0 {
				out[model] = related[0]
			}
			continue
		}
		out[model] = related
	}
}

func page(rows []adapter.Record, offset, limit int) []adapter.Record {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func project(row adapter.Record, fields []string) adapter.Record {
	if len(fields) == 0 {
		return copyRecord(row)
	}
	out := make(adapter.Record, len(fields))
	for _, f := range fields {
		if v, ok := row[f]; ok {
			out[f] = v
		}
	}
	return out
}

func copyRecord(r adapter.Record) adapter.Record {
	out := make(adapter.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
