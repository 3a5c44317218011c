// Package registry builds the effective authentication schema from the core tables,
// plugin contributions and deployer customizations.
package registry

import (
	"context"
	"strings"
	"time"

	"doing_now/authdb/biz/model/options"
	"doing_now/authdb/biz/schema"
)

const (
	ModelUser         = "user"
	ModelSession      = "session"
	ModelAccount      = "account"
	ModelVerification = "verification"
	ModelRateLimit    = "rateLimit"
)

func now() any {
	return time.Now()
}

func lowerCase(_ context.Context, v any) (any, error) {
	if s, ok := v.(string); ok {
		return strings.ToLower(s), nil
	}
	return v, nil
}

func userReference() *schema.Reference {
	return &schema.Reference{Model: ModelUser, Field: schema.IDField, OnDelete: "cascade"}
}

func createdAt() schema.FieldAttribute {
	return schema.FieldAttribute{Type: schema.TypeDate, DefaultValue: now}
}

func updatedAt() schema.FieldAttribute {
	return schema.FieldAttribute{Type: schema.TypeDate, DefaultValue: now, OnUpdate: now}
}

// GetAuthTables resolves the schema for opts. The result is a fresh map owned by the caller.
func GetAuthTables(opts *options.Options) schema.DBSchema {
	if opts == nil {
		opts = &options.Options{}
	}

	pluginTables := make(schema.DBSchema)
	for _, p := range opts.Plugins {
		for key, t := range p.Schema {
			merged, ok := pluginTables[key]
			if !ok {
				merged = schema.Table{ModelName: t.ModelName, Order: t.Order, Fields: map[string]schema.FieldAttribute{}}
			}
			if t.ModelName != "" {
				merged.ModelName = t.ModelName
			}
			merged.DisableMigrations = merged.DisableMigrations || t.DisableMigrations
			for fk, f := range t.Fields {
				merged.Fields[fk] = f
			}
			pluginTables[key] = merged
		}
	}

	tables := schema.DBSchema{
		ModelUser: buildTable(ModelUser, 1, opts.User, pluginTables, map[string]schema.FieldAttribute{
			"name":  {Type: schema.TypeString, Sortable: true},
			"email": {Type: schema.TypeString, Unique: true, Sortable: true, Transform: schema.Transform{Input: lowerCase}},
			"emailVerified": {
				Type:         schema.TypeBoolean,
				DefaultValue: false,
			},
			"image":     {Type: schema.TypeString, Required: schema.Bool(false)},
			"createdAt": createdAt(),
			"updatedAt": updatedAt(),
		}),
		ModelSession: buildTable(ModelSession, 2, opts.Session.TableOptions, pluginTables, map[string]schema.FieldAttribute{
			"expiresAt": {Type: schema.TypeDate},
			"token":     {Type: schema.TypeString, Unique: true},
			"createdAt": createdAt(),
			"updatedAt": updatedAt(),
			"ipAddress": {Type: schema.TypeString, Required: schema.Bool(false)},
			"userAgent": {Type: schema.TypeString, Required: schema.Bool(false)},
			"userId":    {Type: schema.TypeString, References: userReference(), Index: true},
		}),
		ModelAccount: buildTable(ModelAccount, 3, opts.Account, pluginTables, map[string]schema.FieldAttribute{
			"accountId":             {Type: schema.TypeString},
			"providerId":            {Type: schema.TypeString},
			"userId":                {Type: schema.TypeString, References: userReference(), Index: true},
			"accessToken":           {Type: schema.TypeString, Required: schema.Bool(false), Returned: schema.Bool(false)},
			"refreshToken":          {Type: schema.TypeString, Required: schema.Bool(false), Returned: schema.Bool(false)},
			"idToken":               {Type: schema.TypeString, Required: schema.Bool(false), Returned: schema.Bool(false)},
			"accessTokenExpiresAt":  {Type: schema.TypeDate, Required: schema.Bool(false), Returned: schema.Bool(false)},
			"refreshTokenExpiresAt": {Type: schema.TypeDate, Required: schema.Bool(false), Returned: schema.Bool(false)},
			"scope":                 {Type: schema.TypeString, Required: schema.Bool(false)},
			"password":              {Type: schema.TypeString, Required: schema.Bool(false), Returned: schema.Bool(false)},
			"createdAt":             createdAt(),
			"updatedAt":             updatedAt(),
		}),
		ModelVerification: buildTable(ModelVerification, 4, opts.Verification, pluginTables, map[string]schema.FieldAttribute{
			"identifier": {Type: schema.TypeString, Index: true},
			"value":      {Type: schema.TypeString},
			"expiresAt":  {Type: schema.TypeDate},
			"createdAt":  createdAt(),
			"updatedAt":  updatedAt(),
		}),
	}

	for key, t := range pluginTables {
		if _, core := tables[key]; core {
			continue
		}
		if t.ModelName == "" {
			t.ModelName = key
		}
		tables[key] = t
	}

	if opts.RateLimit.UsesDatabase() {
		tables[ModelRateLimit] = RateLimitTable(opts.RateLimit)
	}
	return tables
}

// RateLimitTable is the table backing database rate limit storage.
func RateLimitTable(o options.RateLimitOptions) schema.Table {
	return buildTable(ModelRateLimit, 5, options.TableOptions{ModelName: o.ModelName, Fields: o.Fields}, nil, map[string]schema.FieldAttribute{
		"key":         {Type: schema.TypeString, Unique: true},
		"count":       {Type: schema.TypeNumber},
		"lastRequest": {Type: schema.TypeNumber, BigInt: true},
	})
}

func buildTable(key string, order int, custom options.TableOptions, plugins schema.DBSchema, fields map[string]schema.FieldAttribute) schema.Table {
	if ext, ok := plugins[key]; ok {
		for fk, f := range ext.Fields {
			fields[fk] = f
		}
	}
	for fk, f := range custom.AdditionalFields {
		fields[fk] = f
	}
	for fk, physical := range custom.Fields {
		if f, ok := fields[fk]; ok {
			f.FieldName = physical
			fields[fk] = f
		}
	}

	modelName := custom.ModelName
	if modelName == "" {
		modelName = key
	}
	return schema.Table{
		ModelName: modelName,
		Fields:    fields,
		Order:     order,
	}
}
