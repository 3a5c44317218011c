package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStorage(rdb, "")
	ctx := context.Background()

	v, err := s.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.Equal(t, "", v)

	assert.NoError(t, s.Set(ctx, "token", `{"id":"1"}`, time.Minute))
	v, err = s.Get(ctx, "token")
	assert.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, v)
	assert.True(t, mr.Exists("auth:token"))
	assert.Equal(t, time.Minute, mr.TTL("auth:token"))

	mr.FastForward(2 * time.Minute)
	v, err = s.Get(ctx, "token")
	assert.NoError(t, err)
	assert.Equal(t, "", v)

	assert.NoError(t, s.Set(ctx, "forever", "x", 0))
	assert.Equal(t, time.Duration(0), mr.TTL("auth:forever"))
	assert.NoError(t, s.Delete(ctx, "forever"))
	assert.False(t, mr.Exists("auth:forever"))
}
