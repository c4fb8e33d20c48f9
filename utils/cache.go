// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"mediq/config"

	"github.com/go-redis/redis/v8"
)

// NewCacheClient connects a Redis client for match-result and load-snapshot
// caching. The client is opened at process start and injected into the
// services that need it.
func NewCacheClient() *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
	return client
}
