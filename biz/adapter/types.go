package adapter

import (
	"context"
)

type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
)

type Connector string

const (
	ConnectorAnd Connector = "AND"
	ConnectorOr  Connector = "OR"
)

type Relation string

const (
	OneToOne  Relation = "one-to-one"
	OneToMany Relation = "one-to-many"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

// Record maps field names to values. A missing key means the value was not
// supplied; a key holding nil is an explicit null.
type Record map[string]any

// Where is a filter expressed with logical names. Operator and Connector may be empty.
type Where struct {
	Field     string
	Value     any
	Operator  Operator
	Connector Connector
}

// CleanedWhere is a filter with a physical field, defaulted operator and connector,
// and a value already coerced to the storage representation.
type CleanedWhere struct {
	Field     string
	Value     any
	Operator  Operator
	Connector Connector
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type SortBy struct {
	Field     string
	Direction SortDirection
}

// JoinOption is one entry of a join request. Limit applies to one-to-many relations.
type JoinOption struct {
	Limit int
}

type JoinOn struct {
	From string
	To   string
}

type JoinDescriptor struct {
	On       JoinOn
	Limit    int
	Relation Relation
}

// JoinConfig is keyed by the physical name of the joined model. Field names in
// each descriptor are physical too.
type JoinConfig map[string]JoinDescriptor

type CreateParams struct {
	Model  string
	Data   Record
	Select []string
}

type FindOneParams struct {
	Model  string
	Where  []CleanedWhere
	Select []string
	Join   JoinConfig
}

type FindManyParams struct {
	Model  string
	Where  []CleanedWhere
	Limit  int
	SortBy *SortBy
	Offset int
	Join   JoinConfig
}

type UpdateParams struct {
	Model  string
	Where  []CleanedWhere
	Update Record
}

type DeleteParams struct {
	Model string
	Where []CleanedWhere
}

type CountParams struct {
	Model string
	Where []CleanedWhere
}

// CustomAdapter is implemented by each storage backend. All names it receives are
// physical. FindOne and Update return a nil Record when nothing matched.
//
// When native joins are enabled the backend places joined rows on the base record
// under the joined model's physical name: a Record for one-to-one and a []Record
// for one-to-many.
type CustomAdapter interface {
	Create(ctx context.Context, p CreateParams) (Record, error)
	FindOne(ctx context.Context, p FindOneParams) (Record, error)
	FindMany(ctx context.Context, p FindManyParams) ([]Record, error)
	Update(ctx context.Context, p UpdateParams) (Record, error)
	UpdateMany(ctx context.Context, p UpdateParams) (int64, error)
	Delete(ctx context.Context, p DeleteParams) error
	DeleteMany(ctx context.Context, p DeleteParams) (int64, error)
	Count(ctx context.Context, p CountParams) (int64, error)
}

// Transactor is implemented by backends that can run a callback atomically. The
// callback receives a backend bound to the transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx CustomAdapter) error) error
}

type SchemaFile struct {
	Code      string
	Path      string
	Append    bool
	Overwrite bool
}

// SchemaCreator is implemented by backends that can emit migration files.
type SchemaCreator interface {
	CreateSchema(ctx context.Context, p CreateSchemaParams) (*SchemaFile, error)
}
