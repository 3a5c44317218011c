// Package adapter wraps storage backends with the schema aware pipeline used by
// the authentication core: name resolution, value coercion, filters, joins,
// transactions and debug logging.
package adapter

import (
	"context"
	"fmt"

	"doing_now/authdb/biz/model/errs"
	"doing_now/authdb/biz/model/options"
	"doing_now/authdb/biz/schema/registry"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
)

type CreateRequest struct {
	Model        string
	Data         Record
	Select       []string
	ForceAllowID bool
}

type FindOneRequest struct {
	Model  string
	Where  []Where
	Select []string
	Join   map[string]JoinOption
}

type FindManyRequest struct {
	Model  string
	Where  []Where
	Limit  int
	SortBy *SortBy
	Offset int
	Join   map[string]JoinOption
}

type UpdateRequest struct {
	Model  string
	Where  []Where
	Update Record
}

type DeleteRequest struct {
	Model string
	Where []Where
}

type CountRequest struct {
	Model string
	Where []Where
}

// DBTransactionAdapter is the surface available inside a transaction.
type DBTransactionAdapter interface {
	ID() string
	Create(ctx context.Context, req CreateRequest) (Record, error)
	FindOne(ctx context.Context, req FindOneRequest) (Record, error)
	FindMany(ctx context.Context, req FindManyRequest) ([]Record, error)
	Update(ctx context.Context, req UpdateRequest) (Record, error)
	UpdateMany(ctx context.Context, req UpdateRequest) (int64, error)
	Delete(ctx context.Context, req DeleteRequest) error
	DeleteMany(ctx context.Context, req DeleteRequest) (int64, error)
	Count(ctx context.Context, req CountRequest) (int64, error)
}

type DBAdapter interface {
	DBTransactionAdapter
	Transaction(ctx context.Context, fn func(ctx context.Context, tx DBTransactionAdapter) error) error
	CreateSchema(ctx context.Context, file string) (*SchemaFile, error)
	Options() *options.Options
}

var _ DBAdapter = (*Adapter)(nil)

// Factory builds an adapter for a set of authentication options.
type Factory func(opts *options.Options) (*Adapter, error)

// NewFactory binds a backend constructor to its capability config. The constructor
// receives the resolved helpers so it can inspect the effective schema.
func NewFactory(cfg Config, newBackend func(h *Helpers) (CustomAdapter, error)) Factory {
	return func(opts *options.Options) (*Adapter, error) {
		if opts == nil {
			opts = &options.Options{}
		}
		if opts.UseNumberID() {
			if !cfg.Supports.NumericIDs {
				return nil, errs.NumericIDUnsupported.SetMsg(fmt.Sprintf("adapter %s does not support numeric ids", cfg.name()))
			}
			if opts.Advanced.Database.GenerateIDFunc != nil || cfg.CustomIDGenerator != nil {
				return nil, errs.IDGeneratorConflict.SetMsg("a custom id generator cannot be combined with numeric ids")
			}
		}

		h := newHelpers(cfg, opts, registry.GetAuthTables(opts))
		backend, err := newBackend(h)
		if err != nil {
			return nil, err
		}
		return &Adapter{
			h:        h,
			backend:  backend,
			instance: uuid.NewString(),
			sink:     newSink(cfg.DebugLogs),
		}, nil
	}
}

// Adapter is the schema aware front of a CustomAdapter.
type Adapter struct {
	h        *Helpers
	backend  CustomAdapter
	instance string
	sink     LogSink
}

func (a *Adapter) ID() string {
	return a.h.config.AdapterID
}

// Instance identifies this adapter in captured debug logs.
func (a *Adapter) Instance() string {
	return a.instance
}

func (a *Adapter) Options() *options.Options {
	return a.h.options
}

func (a *Adapter) Helpers() *Helpers {
	return a.h
}

func (a *Adapter) nativeJoins() bool {
	return a.h.options.Experimental.Joins
}

func (a *Adapter) withBackend(backend CustomAdapter) *Adapter {
	return &Adapter{h: a.h, backend: backend, instance: a.instance, sink: a.sink}
}

func (a *Adapter) logFailure(ctx context.Context, method, model string, where []CleanedWhere, limit int, err error) {
	hlog.CtxErrorf(ctx, "[%s] %s on %s failed, where: %+v, limit: %d, err: %v", a.h.config.name(), method, model, where, limit, err)
}

func (a *Adapter) Create(ctx context.Context, req CreateRequest) (Record, error) {
	txID := nextTxID()
	model, err := a.h.DefaultModelName(req.Model)
	if err != nil {
		return nil, err
	}
	physical, err := a.h.ModelName(model)
	if err != nil {
		return nil, err
	}
	selects, err := a.h.selectFields(model, req.Select)
	if err != nil {
		return nil, err
	}

	a.debug(ctx, "create", txID, 1, 4, "Unsafe Input", model, req.Data)
	data := req.Data
	if !a.h.config.DisableTransformInput {
		if data, err = a.h.TransformInput(ctx, req.Data, model, ActionCreate, req.ForceAllowID); err != nil {
			return nil, err
		}
	}
	a.debug(ctx, "create", txID, 2, 4, "Parsed Input", model, data)

	res, err := a.backend.Create(ctx, CreateParams{Model: physical, Data: data, Select: a.h.physicalFields(model, selects)})
	if err != nil {
		a.logFailure(ctx, "create", model, nil, 0, err)
		return nil, err
	}
	a.debug(ctx, "create", txID, 3, 4, "DB Result", model, res)

	out, err := a.output(ctx, res, model, selects, nil)
	if err != nil {
		return nil, err
	}
	a.debug(ctx, "create", txID, 4, 4, "Parsed Result", model, out)
	return out, nil
}

func (a *Adapter) FindOne(ctx context.Context, req FindOneRequest) (Record, error) {
	txID := nextTxID()
	model, err := a.h.DefaultModelName(req.Model)
	if err != nil {
		return nil, err
	}
	physical, err := a.h.ModelName(model)
	if err != nil {
		return nil, err
	}
	where, err := a.h.TransformWhere(model, req.Where)
	if err != nil {
		return nil, err
	}
	selects, err := a.h.selectFields(model, req.Select)
	if err != nil {
		return nil, err
	}
	plan, selects, err := a.h.planJoin(model, req.Join, selects)
	if err != nil {
		return nil, err
	}

	params := FindOneParams{Model: physical, Where: where, Select: a.h.physicalFields(model, selects)}
	if plan != nil && a.nativeJoins() {
		params.Join = plan.config
	}
	a.debug(ctx, "findOne", txID, 1, 3, "Input", model, params)

	res, err := a.backend.FindOne(ctx, params)
	if err != nil {
		a.logFailure(ctx, "findOne", model, where, 1, err)
		return nil, err
	}
	a.debug(ctx, "findOne", txID, 2, 3, "DB Result", model, res)

	out, err := a.output(ctx, res, model, selects, plan)
	if err != nil {
		return nil, err
	}
	if err = a.fallbackJoins(ctx, out, plan); err != nil {
		return nil, err
	}
	a.debug(ctx, "findOne", txID, 3, 3, "Parsed Result", model, out)
	return out, nil
}

func (a *Adapter) FindMany(ctx context.Context, req FindManyRequest) ([]Record, error) {
	txID := nextTxID()
	model, err := a.h.DefaultModelName(req.Model)
	if err != nil {
		return nil, err
	}
	physical, err := a.h.ModelName(model)
	if err != nil {
		return nil, err
	}
	where, err := a.h.TransformWhere(model, req.Where)
	if err != nil {
		return nil, err
	}
	plan, selects, err := a.h.planJoin(model, req.Join, nil)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = a.h.options.FindManyLimit()
	}
	params := FindManyParams{Model: physical, Where: where, Limit: limit, Offset: req.Offset}
	if req.SortBy != nil {
		field, err := a.h.DefaultFieldName(model, req.SortBy.Field)
		if err != nil {
			return nil, err
		}
		direction := req.SortBy.Direction
		if direction == "" {
			direction = SortAsc
		}
		params.SortBy = &SortBy{Field: a.h.physicalKey(model, field), Direction: direction}
	}
	if plan != nil && a.nativeJoins() {
		params.Join = plan.config
	}
	a.debug(ctx, "findMany", txID, 1, 3, "Input", model, params)

	res, err := a.backend.FindMany(ctx, params)
	if err != nil {
		a.logFailure(ctx, "findMany", model, where, limit, err)
		return nil, err
	}
	a.debug(ctx, "findMany", txID, 2, 3, "DB Result", model, res)

	out := make([]Record, 0, len(res))
	for _, r := range res {
		rec, err := a.output(ctx, r, model, selects, plan)
		if err != nil {
			return nil, err
		}
		if err = a.fallbackJoins(ctx, rec, plan); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	a.debug(ctx, "findMany", txID, 3, 3, "Parsed Result", model, out)
	return out, nil
}

func (a *Adapter) Update(ctx context.Context, req UpdateRequest) (Record, error) {
	txID := nextTxID()
	model, err := a.h.DefaultModelName(req.Model)
	if err != nil {
		return nil, err
	}
	physical, err := a.h.ModelName(model)
	if err != nil {
		return nil, err
	}
	where, err := a.h.TransformWhere(model, req.Where)
	if err != nil {
		return nil, err
	}

	a.debug(ctx, "update", txID, 1, 4, "Unsafe Input", model, req.Update)
	data := req.Update
	if !a.h.config.DisableTransformInput {
		if data, err = a.h.TransformInput(ctx, req.Update, model, ActionUpdate, false); err != nil {
			return nil, err
		}
	}
	a.debug(ctx, "update", txID, 2, 4, "Parsed Input", model, data)

	res, err := a.backend.Update(ctx, UpdateParams{Model: physical, Where: where, Update: data})
	if err != nil {
		a.logFailure(ctx, "update", model, where, 0, err)
		return nil, err
	}
	a.debug(ctx, "update", txID, 3, 4, "DB Result", model, res)

	out, err := a.output(ctx, res, model, nil, nil)
	if err != nil {
		return nil, err
	}
	a.debug(ctx, "update", txID, 4, 4, "Parsed Result", model, out)
	return out, nil
}

func (a *Adapter) UpdateMany(ctx context.Context, req UpdateRequest) (int64, error) {
	txID := nextTxID()
	model, err := a.h.DefaultModelName(req.Model)
	if err != nil {
		return 0, err
	}
	physical, err := a.h.ModelName(model)
	if err != nil {
		return 0, err
	}
	where, err := a.h.TransformWhere(model, req.Where)
	if err != nil {
		return 0, err
	}

	a.debug(ctx, "updateMany", txID, 1, 4, "Unsafe Input", model, req.Update)
	data := req.Update
	if !a.h.config.DisableTransformInput {
		if data, err = a.h.TransformInput(ctx, req.Update, model, ActionUpdate, false); err != nil {
			return 0, err
		}
	}
	a.debug(ctx, "updateMany", txID, 2, 4, "Parsed Input", model, data)

	n, err := a.backend.UpdateMany(ctx, UpdateParams{Model: physical, Where: where, Update: data})
	if err != nil {
		a.logFailure(ctx, "updateMany", model, where, 0, err)
		return 0, err
	}
	a.debug(ctx, "updateMany", txID, 3, 4, "DB Result", model, n)
	a.debug(ctx, "updateMany", txID, 4, 4, "Parsed Result", model, n)
	return n, nil
}

func (a *Adapter) Delete(ctx context.Context, req DeleteRequest) error {
	txID := nextTxID()
	model, err := a.h.DefaultModelName(req.Model)
	if err != nil {
		return err
	}
	physical, err := a.h.ModelName(model)
	if err != nil {
		return err
	}
	where, err := a.h.TransformWhere(model, req.Where)
	if err != nil {
		return err
	}

	a.debug(ctx, "delete", txID, 1, 2, "Input", model, where)
	if err = a.backend.Delete(ctx, DeleteParams{Model: physical, Where: where}); err != nil {
		a.logFailure(ctx, "delete", model, where, 0, err)
		return err
	}
	a.debug(ctx, "delete", txID, 2, 2, "DB Result", model, "deleted")
	return nil
}

func (a *Adapter) DeleteMany(ctx context.Context, req DeleteRequest) (int64, error) {
	txID := nextTxID()
	model, err := a.h.DefaultModelName(req.Model)
	if err != nil {
		return 0, err
	}
	physical, err := a.h.ModelName(model)
	if err != nil {
		return 0, err
	}
	where, err := a.h.TransformWhere(model, req.Where)
	if err != nil {
		return 0, err
	}

	a.debug(ctx, "deleteMany", txID, 1, 2, "Input", model, where)
	n, err := a.backend.DeleteMany(ctx, DeleteParams{Model: physical, Where: where})
	if err != nil {
		a.logFailure(ctx, "deleteMany", model, where, 0, err)
		return 0, err
	}
	a.debug(ctx, "deleteMany", txID, 2, 2, "DB Result", model, n)
	return n, nil
}

func (a *Adapter) Count(ctx context.Context, req CountRequest) (int64, error) {
	txID := nextTxID()
	model, err := a.h.DefaultModelName(req.Model)
	if err != nil {
		return 0, err
	}
	physical, err := a.h.ModelName(model)
	if err != nil {
		return 0, err
	}
	where, err := a.h.TransformWhere(model, req.Where)
	if err != nil {
		return 0, err
	}

	a.debug(ctx, "count", txID, 1, 3, "Input", model, where)
	n, err := a.backend.Count(ctx, CountParams{Model: physical, Where: where})
	if err != nil {
		a.logFailure(ctx, "count", model, where, 0, err)
		return 0, err
	}
	a.debug(ctx, "count", txID, 2, 3, "DB Result", model, n)
	a.debug(ctx, "count", txID, 3, 3, "Parsed Result", model, n)
	return n, nil
}

// Transaction runs fn atomically when the backend supports it. Otherwise fn runs
// against this adapter directly with no rollback.
func (a *Adapter) Transaction(ctx context.Context, fn func(ctx context.Context, tx DBTransactionAdapter) error) error {
	tr, ok := a.backend.(Transactor)
	if !a.h.config.Transaction || !ok {
		return fn(ctx, a)
	}
	return tr.WithTransaction(ctx, func(ctx context.Context, tx CustomAdapter) error {
		return fn(ctx, a.withBackend(tx))
	})
}

// CreateSchema asks the backend to generate a schema file for the effective tables.
func (a *Adapter) CreateSchema(ctx context.Context, file string) (*SchemaFile, error) {
	creator, ok := a.backend.(SchemaCreator)
	if !ok {
		return nil, errs.CreateSchemaMissing.SetMsg(fmt.Sprintf("adapter %s cannot generate schema files", a.h.config.name()))
	}

	opts := a.h.options
	tables := a.h.schema.Clone()
	if !opts.StoresSessionInDatabase() {
		delete(tables, registry.ModelSession)
	}
	if opts.RateLimit.UsesDatabase() {
		if _, ok := tables[registry.ModelRateLimit]; !ok {
			tables[registry.ModelRateLimit] = registry.RateLimitTable(opts.RateLimit)
		}
	}
	return creator.CreateSchema(ctx, CreateSchemaParams{File: file, Tables: tables})
}
