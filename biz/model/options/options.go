// Package options holds the deployment level authentication options consumed by the
// schema registry and the adapter factory.
package options

import (
	"context"
	"time"

	"doing_now/authdb/biz/schema"
)

const (
	GenerateIDDefault = ""
	GenerateIDUUID    = "uuid"
	GenerateIDSerial  = "serial"

	RateLimitStorageMemory    = "memory"
	RateLimitStorageDatabase  = "database"
	RateLimitStorageSecondary = "secondary-storage"

	DefaultFindManyLimit = 100
)

// SecondaryStorage is a key-value store used for session data outside the primary
// database. Get returns "" with a nil error when the key does not exist.
type SecondaryStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Options struct {
	User         TableOptions
	Session      SessionOptions
	Account      TableOptions
	Verification TableOptions
	RateLimit    RateLimitOptions

	Plugins          []Plugin
	SecondaryStorage SecondaryStorage

	Advanced     AdvancedOptions
	Experimental ExperimentalOptions
}

// TableOptions customizes a core table. Fields maps logical field keys to physical
// column names.
type TableOptions struct {
	ModelName        string
	Fields           map[string]string
	AdditionalFields map[string]schema.FieldAttribute
}

type SessionOptions struct {
	TableOptions
	StoreSessionInDatabase bool
	ExpiresIn              time.Duration
}

type RateLimitOptions struct {
	Enabled   *bool
	Storage   string
	ModelName string
	Fields    map[string]string
	Window    time.Duration
	Max       int
}

// IsEnabled treats an unset flag as enabled.
func (o RateLimitOptions) IsEnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// UsesDatabase reports whether rate limit counters live in the primary database.
func (o RateLimitOptions) UsesDatabase() bool {
	return o.Storage == RateLimitStorageDatabase && o.IsEnabled()
}

// Plugin contributes tables to the schema. A table whose key matches a core table
// extends that table's fields instead of replacing it.
type Plugin struct {
	ID     string
	Schema schema.DBSchema
}

type AdvancedOptions struct {
	Database DatabaseOptions
}

type DatabaseOptions struct {
	UseNumberID bool
	// GenerateID is "", "uuid" or "serial". GenerateIDFunc, when set, wins over it.
	GenerateID           string
	GenerateIDFunc       func(model string) string
	DefaultFindManyLimit int
}

type ExperimentalOptions struct {
	// Joins enables native joins; backends are expected to honor JoinConfig when set.
	Joins bool
}

// UseNumberID reports whether ids are numeric/serial.
func (o *Options) UseNumberID() bool {
	if o == nil {
		return false
	}
	return o.Advanced.Database.UseNumberID || o.Advanced.Database.GenerateID == GenerateIDSerial
}

func (o *Options) FindManyLimit() int {
	if o == nil || o.Advanced.Database.DefaultFindManyLimit <= 0 {
		return DefaultFindManyLimit
	}
	return o.Advanced.Database.DefaultFindManyLimit
}

// StoresSessionInDatabase is false only when a secondary storage takes over sessions.
func (o *Options) StoresSessionInDatabase() bool {
	if o == nil {
		return true
	}
	return o.SecondaryStorage == nil || o.Session.StoreSessionInDatabase
}
