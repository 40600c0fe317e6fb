// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"safar/config"

	"github.com/go-redis/redis/v8"
)

// AuthCacheClient is the dedicated client for authorization caching.
var AuthCacheClient *redis.Client

// InitAuthCache initializes the Redis client for authorization caching (using DB from AppConfig for auth cache).
func InitAuthCache() {
	AuthCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAuthDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := AuthCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Printf("WARNING: Failed to connect to Redis (Auth Cache): %v. Auth caching disabled.", err)
		AuthCacheClient = nil
	}
}

// GetAuthCacheClient returns the Redis client for authorization caching, or nil
// when Redis is unavailable (callers fall back to the session store).
func GetAuthCacheClient() *redis.Client {
	return AuthCacheClient
}
