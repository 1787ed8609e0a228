package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis builds a redis client from a URL. Redis carries rate-limit
// counters and the notification pub/sub fan-out; both degrade gracefully,
// so an unreachable redis logs a warning instead of aborting startup.
func ConnectRedis(rawURL string) *redis.Client {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("warning: redis unreachable at startup: %v", err)
	}

	return client
}
