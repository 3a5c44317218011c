package registry

import (
	"context"
	"testing"
	"time"

	"doing_now/authdb/biz/model/options"
	"doing_now/authdb/biz/schema"

	"github.com/stretchr/testify/assert"
)

func TestGetAuthTables_Core(t *testing.T) {
	tables := GetAuthTables(nil)

	assert.Equal(t, []string{ModelUser, ModelSession, ModelAccount, ModelVerification}, tables.SortedKeys())
	assert.NotContains(t, tables, ModelRateLimit)

	user := tables[ModelUser]
	assert.Equal(t, "user", user.ModelName)
	assert.True(t, user.Fields["email"].Unique)
	assert.Equal(t, false, user.Fields["emailVerified"].ResolveDefault())
	assert.False(t, user.Fields["image"].IsRequired())
	assert.IsType(t, time.Time{}, user.Fields["updatedAt"].OnUpdate())

	lowered, err := user.Fields["email"].Transform.Input(context.Background(), "A@B.COM")
	assert.NoError(t, err)
	assert.Equal(t, "a@b.com", lowered)

	session := tables[ModelSession]
	assert.True(t, session.Fields["userId"].ReferencesID())
	assert.Equal(t, "cascade", session.Fields["userId"].References.OnDelete)

	account := tables[ModelAccount]
	assert.False(t, account.Fields["password"].IsReturned())
	assert.False(t, account.Fields["accessToken"].IsReturned())
	assert.True(t, account.Fields["providerId"].IsReturned())
}

func TestGetAuthTables_Customized(t *testing.T) {
	opts := &options.Options{
		User: options.TableOptions{
			ModelName: "members",
			Fields:    map[string]string{"email": "email_address", "unknown": "ignored"},
			AdditionalFields: map[string]schema.FieldAttribute{
				"role": {Type: schema.TypeString, DefaultValue: "member"},
			},
		},
		Session:   options.SessionOptions{TableOptions: options.TableOptions{ModelName: "sessions"}},
		RateLimit: options.RateLimitOptions{Storage: options.RateLimitStorageDatabase, ModelName: "rate_limits"},
		Plugins: []options.Plugin{
			{ID: "admin", Schema: schema.DBSchema{
				"user": {Fields: map[string]schema.FieldAttribute{
					"banned": {Type: schema.TypeBoolean, DefaultValue: false},
				}},
			}},
			{ID: "org", Schema: schema.DBSchema{
				"organization": {Order: 10, Fields: map[string]schema.FieldAttribute{
					"name": {Type: schema.TypeString},
				}},
			}},
		},
	}
	tables := GetAuthTables(opts)

	user := tables[ModelUser]
	assert.Equal(t, "members", user.ModelName)
	assert.Equal(t, "email_address", user.Fields["email"].FieldName)
	assert.NotContains(t, user.Fields, "unknown")
	assert.Contains(t, user.Fields, "role")
	assert.Contains(t, user.Fields, "banned")
	assert.Contains(t, user.Fields, "name")

	assert.Equal(t, "sessions", tables[ModelSession].ModelName)
	assert.Equal(t, "organization", tables["organization"].ModelName)

	rl := tables[ModelRateLimit]
	assert.Equal(t, "rate_limits", rl.ModelName)
	assert.True(t, rl.Fields["key"].Unique)
	assert.True(t, rl.Fields["lastRequest"].BigInt)
}

func TestGetAuthTables_RateLimitDisabled(t *testing.T) {
	tables := GetAuthTables(&options.Options{RateLimit: options.RateLimitOptions{
		Storage: options.RateLimitStorageDatabase,
		Enabled: schema.Bool(false),
	}})
	assert.NotContains(t, tables, ModelRateLimit)
}
