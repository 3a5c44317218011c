package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConf(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), "deploy.yml")
	if err := os.WriteFile(p, []byte(content), 0600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return p
}

func TestInit(t *testing.T) {
	p := writeConf(t, `database:
  driver: sqlite
  path: ":memory:"

redis:
  ip: "127.0.0.1"
  port: 6379
  password: ""
  db: 0

logger:
  level: info

auth:
  use_plural: true
  generate_id: uuid
  default_find_many_limit: 50
  debug_logs:
    enabled: true
    methods: [create, findOne]
  user:
    model_name: member
    fields:
      name: full_name
  session:
    model_name: sessions
    store_in_database: true
    expires_in: 3600
  rate_limit:
    storage: database
    window: 60
    max: 10
`)

	Init(p)
	assert.Equal(t, "sqlite", GetDatabaseConf().Driver)
	assert.True(t, GetRedisConf().Enabled())
	assert.Equal(t, "info", GetLoggerConf().Level)

	auth := GetAuthConf()
	assert.True(t, auth.UsePlural)
	assert.Equal(t, "uuid", auth.GenerateID)
	assert.Equal(t, []string{"create", "findOne"}, auth.DebugLogs.Methods)
	assert.Equal(t, "member", auth.User.ModelName)
	assert.Equal(t, "full_name", auth.User.Fields["name"])
	assert.Equal(t, "sessions", auth.Session.ModelName)
	assert.True(t, auth.Session.StoreInDatabase)
	assert.Nil(t, auth.RateLimit.Enabled)
	assert.Equal(t, "database", auth.RateLimit.Storage)
}

func TestInit_Invalid(t *testing.T) {
	assert.Panics(t, func() {
		Init(writeConf(t, "auth:\n  generate_id: snowflake\n"))
	})
	assert.Panics(t, func() {
		Init(writeConf(t, "database:\n  driver: postgres\n"))
	})
	assert.Panics(t, func() {
		Init(filepath.Join(t.TempDir(), "missing.yml"))
	})
	assert.Panics(t, func() {
		Init(writeConf(t, "auth:\n  rate_limit:\n    storage: secondary-storage\n"))
	})
	assert.NotPanics(t, func() {
		Init(writeConf(t, "redis:\n  ip: 127.0.0.1\n  port: 6379\nauth:\n  rate_limit:\n    storage: secondary-storage\n"))
	})
}
