// Package kv stores session data in redis when a secondary storage is configured.
package kv

import (
	"context"
	"errors"
	"time"

	"doing_now/authdb/biz/model/options"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "auth:"

type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

var _ options.SecondaryStorage = (*RedisStorage)(nil)

// NewRedisStorage namespaces every key with prefix, "auth:" when empty.
func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) Client() redis.UniversalClient {
	return s.client
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// Set stores value without expiry when ttl is not positive.
func (s *RedisStorage) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
