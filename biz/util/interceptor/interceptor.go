package interceptor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"doing_now/authdb/biz/adapter"
	db_redis "doing_now/authdb/biz/db/redis"
	"doing_now/authdb/biz/model/errs"
	"doing_now/authdb/biz/model/options"
	"doing_now/authdb/biz/schema/registry"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
)

// luaScript ensures atomicity of INCR + EXPIRE and provides self-healing for keys without TTL.
// KEYS[1]: The rate limit key
// ARGV[1]: Window duration in seconds
// ARGV[2]: Max limit count
const luaScript = `
local key = KEYS[1]
local window = ARGV[1]
local limit = tonumber(ARGV[2])

local current = redis.call("INCR", key)

if current == 1 then
    redis.call("EXPIRE", key, window)
else
    if redis.call("TTL", key) == -1 then
        redis.call("EXPIRE", key, window)
    end
end

if current > limit then
    return 0 -- Denied
end
return 1 -- Allowed
`

const (
	DefaultWindow = 10 * time.Second
	DefaultMax    = 100

	rateLimitPrefix = "rate_limit:"
)

// Storage counts requests of a key in a fixed window.
type Storage interface {
	Allow(ctx context.Context, key string, window time.Duration, limit int64) (bool, error)
}

type Interceptor struct {
	storage Storage
	window  time.Duration
	limit   int64
}

func NewInterceptor(storage Storage, window time.Duration, limit int64) *Interceptor {
	return &Interceptor{
		storage: storage,
		window:  window,
		limit:   limit,
	}
}

// NewFromOptions picks the counter storage configured for rate limiting. It
// returns nil when rate limiting is disabled. The secondary-storage mode
// counts in db's secondary storage and fails when none is configured.
func NewFromOptions(o options.RateLimitOptions, db adapter.DBAdapter) (*Interceptor, error) {
	if !o.IsEnabled() {
		return nil, nil
	}
	window := o.Window
	if window <= 0 {
		window = DefaultWindow
	}
	limit := int64(o.Max)
	if limit <= 0 {
		limit = DefaultMax
	}

	var storage Storage
	switch o.Storage {
	case options.RateLimitStorageDatabase:
		if db == nil {
			return nil, errs.InvalidAdapterConfig.SetMsg("rate limit storage database needs an adapter")
		}
		storage = NewDatabaseStorage(db)
	case options.RateLimitStorageSecondary:
		var secondary options.SecondaryStorage
		if db != nil && db.Options() != nil {
			secondary = db.Options().SecondaryStorage
		}
		if secondary == nil {
			return nil, errs.InvalidAdapterConfig.SetMsg("rate limit storage secondary-storage needs a secondary storage")
		}
		// redis backed storage counts atomically in a script
		if c, ok := secondary.(interface{ Client() redis.UniversalClient }); ok {
			storage = NewRedisStorage(c.Client())
		} else {
			storage = NewSecondaryStorage(secondary)
		}
	default:
		storage = NewMemoryStorage()
	}
	return NewInterceptor(storage, window, limit), nil
}

// Allow fails open: a storage error is logged and the request goes through.
func (i *Interceptor) Allow(ctx context.Context, key string) (bool, error) {
	allowed, err := i.storage.Allow(ctx, key, i.window, i.limit)
	if err != nil {
		hlog.CtxErrorf(ctx, "Rate limit error for key %s: %v", key, err)
		return true, err
	}
	return allowed, nil
}

// RedisStorage runs the counter script on its client, or on the global redis
// client when it has none.
type RedisStorage struct {
	client redis.Scripter
}

func NewRedisStorage(client redis.Scripter) RedisStorage {
	return RedisStorage{client: client}
}

func (s RedisStorage) Allow(ctx context.Context, key string, window time.Duration, limit int64) (bool, error) {
	client := s.client
	if client == nil {
		if global := db_redis.GetRedisClient(); global != nil {
			client = global
		}
	}
	if client == nil {
		return false, errs.ServerError.SetMsg("redis is not configured")
	}
	redisKey := rateLimitPrefix + key

	result, err := client.Eval(ctx, luaScript, []string{redisKey}, int(window.Seconds()), limit).Result()
	if err != nil {
		return false, err
	}

	// Result is 1 (Allowed) or 0 (Denied)
	n, ok := result.(int64)
	if !ok {
		return false, errs.ServerError.SetMsg(fmt.Sprintf("unexpected rate limit script result %T", result))
	}
	return n == 1, nil
}

// SecondaryStorage keeps "<window start ms>:<count>" under each key and lets
// the entry expire with its window. Read and write are separate calls, so
// concurrent requests may undercount.
type SecondaryStorage struct {
	storage options.SecondaryStorage
}

func NewSecondaryStorage(storage options.SecondaryStorage) *SecondaryStorage {
	return &SecondaryStorage{storage: storage}
}

func (s *SecondaryStorage) Allow(ctx context.Context, key string, window time.Duration, limit int64) (bool, error) {
	redisKey := rateLimitPrefix + key
	now := time.Now().UnixMilli()

	raw, err := s.storage.Get(ctx, redisKey)
	if err != nil {
		return false, err
	}
	start, count := now, int64(0)
	if prevStart, prevCount, ok := parseCounter(raw); ok && now-prevStart < window.Milliseconds() {
		start, count = prevStart, prevCount
	}
	count++

	ttl := time.Duration(start+window.Milliseconds()-now) * time.Millisecond
	if ttl <= 0 {
		ttl = window
	}
	if err := s.storage.Set(ctx, redisKey, fmt.Sprintf("%d:%d", start, count), ttl); err != nil {
		return false, err
	}
	return count <= limit, nil
}

func parseCounter(raw string) (start, count int64, ok bool) {
	head, tail, found := strings.Cut(raw, ":")
	if !found {
		return 0, 0, false
	}
	start, err := cast.ToInt64E(head)
	if err != nil {
		return 0, 0, false
	}
	count, err = cast.ToInt64E(tail)
	if err != nil {
		return 0, 0, false
	}
	return start, count, true
}

// DatabaseStorage keeps counters in the rateLimit model. lastRequest holds the
// start of the current window in unix milliseconds.
type DatabaseStorage struct {
	db adapter.DBAdapter
}

func NewDatabaseStorage(db adapter.DBAdapter) *DatabaseStorage {
	return &DatabaseStorage{db: db}
}

func (s *DatabaseStorage) Allow(ctx context.Context, key string, window time.Duration, limit int64) (bool, error) {
	allowed := false
	err := s.db.Transaction(ctx, func(ctx context.Context, tx adapter.DBTransactionAdapter) error {
		now := time.Now().UnixMilli()
		where := []adapter.Where{{Field: "key", Value: key}}
		rec, err := tx.FindOne(ctx, adapter.FindOneRequest{Model: registry.ModelRateLimit, Where: where})
		if err != nil {
			return err
		}
		if rec == nil {
			allowed = limit > 0
			_, err = tx.Create(ctx, adapter.CreateRequest{
				Model: registry.ModelRateLimit,
				Data:  adapter.Record{"key": key, "count": 1, "lastRequest": now},
			})
			return err
		}

		count := cast.ToInt64(rec["count"])
		update := adapter.Record{"count": count + 1}
		if now-cast.ToInt64(rec["lastRequest"]) >= window.Milliseconds() {
			update = adapter.Record{"count": 1, "lastRequest": now}
			count = 0
		}
		allowed = count < limit
		_, err = tx.Update(ctx, adapter.UpdateRequest{Model: registry.ModelRateLimit, Where: where, Update: update})
		return err
	})
	return allowed, err
}

type memoryCounter struct {
	start time.Time
	count int64
}

// MemoryStorage counts in process and is only correct for a single instance.
type MemoryStorage struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{counters: map[string]*memoryCounter{}}
}

func (s *MemoryStorage) Allow(_ context.Context, key string, window time.Duration, limit int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c, ok := s.counters[key]
	if !ok || now.Sub(c.start) >= window {
		c = &memoryCounter{start: now}
		s.counters[key] = c
	}
	c.count++
	return c.count <= limit, nil
}
