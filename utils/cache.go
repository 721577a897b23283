// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"bikebooker/config"

	"github.com/go-redis/redis/v8"
)

// EventsClient is the Redis client used for the real-time booking event channel.
var EventsClient *redis.Client

// InitEventsClient initializes the Redis client backing booking event pub/sub.
func InitEventsClient() {
	EventsClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisEventsDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := EventsClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Events): %v", err)
	}
}

// GetEventsClient returns the Redis client for booking events.
func GetEventsClient() *redis.Client {
	if EventsClient == nil {
		InitEventsClient()
	}
	return EventsClient
}
