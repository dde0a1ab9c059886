// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"tripcart/config"

	"github.com/go-redis/redis/v8"
)

var (
	// PriceCacheClient is the client for short-lived catalog price caching.
	PriceCacheClient *redis.Client
	// ExpiryIndexClient is the dedicated client for the hold expiry index.
	ExpiryIndexClient *redis.Client
)

// InitPriceCache initializes the Redis client used for catalog base-price caching.
func InitPriceCache() {
	PriceCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisPriceDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := PriceCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Price Cache): %v", err)
	}
}

// GetPriceCacheClient returns the price cache client.
func GetPriceCacheClient() *redis.Client {
	if PriceCacheClient == nil {
		InitPriceCache()
	}
	return PriceCacheClient
}

// InitExpiryIndex initializes the Redis client backing the hold expiry index.
func InitExpiryIndex() {
	ExpiryIndexClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisExpiryDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := ExpiryIndexClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Expiry Index): %v", err)
	}
}

// GetExpiryIndexClient returns the Redis client for the hold expiry index.
func GetExpiryIndexClient() *redis.Client {
	if ExpiryIndexClient == nil {
		InitExpiryIndex()
	}
	return ExpiryIndexClient
}
