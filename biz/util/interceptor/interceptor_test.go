package interceptor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/dal/kv"
	"doing_now/authdb/biz/dal/memory"
	db_redis "doing_now/authdb/biz/db/redis"
	"doing_now/authdb/biz/model/errs"
	"doing_now/authdb/biz/model/options"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/mockey"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterceptor_Allow_LuaScript(t *testing.T) {
	// Setup miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	ctx := context.Background()
	key := "test_ip"
	redisKey := "rate_limit:" + key

	mockey.PatchConvey("TestInterceptor_Allow_LuaScript", t, func() {
		mockey.Mock(db_redis.GetRedisClient).Return(rdb).Build()

		t.Run("Normal Flow", func(t *testing.T) {
			mr.FlushAll()
			// Limit 2 requests per 1 second
			interceptor := NewInterceptor(RedisStorage{}, time.Second, 2)

			allowed, err := interceptor.Allow(ctx, key)
			assert.NoError(t, err)
			assert.True(t, allowed)

			ttl := mr.TTL(redisKey)
			assert.True(t, ttl > 0 && ttl <= time.Second, "TTL should be set")

			allowed, err = interceptor.Allow(ctx, key)
			assert.NoError(t, err)
			assert.True(t, allowed)

			allowed, err = interceptor.Allow(ctx, key)
			assert.NoError(t, err)
			assert.False(t, allowed)
		})

		t.Run("Window Expiration", func(t *testing.T) {
			mr.FlushAll()
			interceptor := NewInterceptor(RedisStorage{}, time.Second, 1)

			allowed, err := interceptor.Allow(ctx, key)
			assert.True(t, allowed)
			assert.NoError(t, err)

			allowed, err = interceptor.Allow(ctx, key)
			assert.False(t, allowed)
			assert.NoError(t, err)

			mr.FastForward(2 * time.Second)

			allowed, err = interceptor.Allow(ctx, key)
			assert.True(t, allowed)
			assert.NoError(t, err)
		})

		t.Run("Self Healing (Zombie Key)", func(t *testing.T) {
			mr.FlushAll()
			interceptor := NewInterceptor(RedisStorage{}, 10*time.Second, 5)

			// a key without expiration
			err := rdb.Set(ctx, redisKey, 2, 0).Err()
			assert.NoError(t, err)
			assert.Equal(t, time.Duration(0), mr.TTL(redisKey))

			allowed, err := interceptor.Allow(ctx, key)
			assert.NoError(t, err)
			assert.True(t, allowed)

			ttl := mr.TTL(redisKey)
			assert.True(t, ttl > 0, "TTL should be healed")

			val, _ := mr.Get(redisKey)
			assert.Equal(t, "3", val)
		})
	})
}

type failingStorage struct{}

func (failingStorage) Allow(context.Context, string, time.Duration, int64) (bool, error) {
	return false, errors.New("storage down")
}

func TestInterceptor_FailOpen(t *testing.T) {
	allowed, err := NewInterceptor(failingStorage{}, time.Second, 1).Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, allowed)
}

func TestDatabaseStorage(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	opts := &options.Options{RateLimit: options.RateLimitOptions{Storage: options.RateLimitStorageDatabase, Max: 2, Window: time.Hour}}
	a, err := memory.NewFactory(store, memory.DefaultConfig())(opts)
	require.NoError(t, err)

	interceptor, err := NewFromOptions(opts.RateLimit, a)
	require.NoError(t, err)
	require.NotNil(t, interceptor)

	for i, want := range []bool{true, true, false} {
		allowed, err := interceptor.Allow(ctx, "127.0.0.1")
		assert.NoError(t, err)
		assert.Equal(t, want, allowed, "request %d", i)
	}
	rows := store.Rows("rateLimit")
	if assert.Len(t, rows, 1) {
		assert.EqualValues(t, 3, rows[0]["count"])
	}

	// a stale window restarts the counter
	_, err = a.Update(ctx, adapter.UpdateRequest{
		Model:  "rateLimit",
		Where:  []adapter.Where{{Field: "key", Value: "127.0.0.1"}},
		Update: adapter.Record{"lastRequest": time.Now().Add(-2 * time.Hour).UnixMilli()},
	})
	require.NoError(t, err)
	allowed, err := interceptor.Allow(ctx, "127.0.0.1")
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	for i, want := range []bool{true, false} {
		allowed, err := s.Allow(ctx, "k", 50*time.Millisecond, 1)
		assert.NoError(t, err)
		assert.Equal(t, want, allowed, "request %d", i)
	}
	time.Sleep(60 * time.Millisecond)
	allowed, err := s.Allow(ctx, "k", 50*time.Millisecond, 1)
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisStorage_NoClient(t *testing.T) {
	mockey.PatchConvey("TestRedisStorage_NoClient", t, func() {
		mockey.Mock(db_redis.GetRedisClient).Return((*redis.Client)(nil)).Build()

		allowed, err := NewInterceptor(RedisStorage{}, time.Second, 1).Allow(context.Background(), "k")
		assert.True(t, errors.Is(err, errs.ServerError))
		assert.True(t, allowed)
	})
}

// mapStorage is a secondary storage without redis behind it.
type mapStorage struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func (m *mapStorage) Get(_ context.Context, key string) (string, error) {
	return m.values[key], nil
}

func (m *mapStorage) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mapStorage) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func TestSecondaryStorage(t *testing.T) {
	ctx := context.Background()
	m := &mapStorage{values: map[string]string{}, ttls: map[string]time.Duration{}}
	s := NewSecondaryStorage(m)

	for i, want := range []bool{true, true, false} {
		allowed, err := s.Allow(ctx, "k", time.Minute, 2)
		assert.NoError(t, err)
		assert.Equal(t, want, allowed, "request %d", i)
	}
	start, count, ok := parseCounter(m.values["rate_limit:k"])
	require.True(t, ok)
	assert.Equal(t, int64(3), count)
	ttl := m.ttls["rate_limit:k"]
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	// an elapsed window starts over
	m.values["rate_limit:k"] = fmt.Sprintf("%d:%d", start-time.Minute.Milliseconds(), count)
	allowed, err := s.Allow(ctx, "k", time.Minute, 2)
	assert.NoError(t, err)
	assert.True(t, allowed)
	_, count, _ = parseCounter(m.values["rate_limit:k"])
	assert.Equal(t, int64(1), count)

	// garbage is treated as a fresh window
	m.values["rate_limit:k"] = "garbage"
	allowed, err = s.Allow(ctx, "k", time.Minute, 2)
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewFromOptions(t *testing.T) {
	disabled := false
	i, err := NewFromOptions(options.RateLimitOptions{Enabled: &disabled}, nil)
	assert.NoError(t, err)
	assert.Nil(t, i)

	i, err = NewFromOptions(options.RateLimitOptions{}, nil)
	require.NoError(t, err)
	if assert.NotNil(t, i) {
		assert.IsType(t, &MemoryStorage{}, i.storage)
		assert.Equal(t, DefaultWindow, i.window)
		assert.Equal(t, int64(DefaultMax), i.limit)
	}

	secondary := options.RateLimitOptions{Storage: options.RateLimitStorageSecondary}
	_, err = NewFromOptions(secondary, nil)
	assert.True(t, errors.Is(err, errs.InvalidAdapterConfig))

	_, err = NewFromOptions(options.RateLimitOptions{Storage: options.RateLimitStorageDatabase}, nil)
	assert.True(t, errors.Is(err, errs.InvalidAdapterConfig))

	newAdapter := func(storage options.SecondaryStorage) adapter.DBAdapter {
		a, err := memory.NewFactory(memory.NewStore(), memory.DefaultConfig())(&options.Options{SecondaryStorage: storage})
		require.NoError(t, err)
		return a
	}

	_, err = NewFromOptions(secondary, newAdapter(nil))
	assert.True(t, errors.Is(err, errs.InvalidAdapterConfig))

	i, err = NewFromOptions(secondary, newAdapter(&mapStorage{}))
	require.NoError(t, err)
	assert.IsType(t, &SecondaryStorage{}, i.storage)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	i, err = NewFromOptions(options.RateLimitOptions{Storage: options.RateLimitStorageSecondary, Max: 1, Window: time.Minute}, newAdapter(kv.NewRedisStorage(rdb, "")))
	require.NoError(t, err)
	assert.IsType(t, RedisStorage{}, i.storage)

	ctx := context.Background()
	allowed, err := i.Allow(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = i.Allow(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, allowed)
}
