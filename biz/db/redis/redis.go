package redis

import (
	"context"
	"fmt"
	"time"

	"doing_now/authdb/biz/config"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

func Init() {
	conf := config.GetRedisConf()
	if !conf.Enabled() {
		return
	}

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.IP, conf.Port),
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(err)
	}
}

// GetRedisClient returns nil when redis is not configured.
func GetRedisClient() *redis.Client {
	return client
}
