package middleware

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit is a fixed-window counter in redis, so limits survive process
// restarts and are shared across instances. The key function picks the
// subject (phone from the body, or client IP). When redis is unreachable
// the limiter fails open rather than blocking logins.
func RateLimit(rdb *redis.Client, name string, limit int, window time.Duration, keyFn func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil {
			return c.Next()
		}

		subject := keyFn(c)
		if subject == "" {
			subject = c.IP()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", name, subject)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("[RateLimit] redis error for %s: %v", key, err)
			return c.Next()
		}
		if count == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				log.Printf("[RateLimit] expire failed for %s: %v", key, err)
			}
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			ttl, err := rdb.TTL(ctx, key).Result()
			if err == nil && ttl > 0 {
				c.Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			}
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}

		return c.Next()
	}
}

// PhoneKey extracts the phone field from a JSON body for per-subject rate
// limiting, falling back to the client IP.
func PhoneKey(c *fiber.Ctx) string {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&body); err == nil && body.Phone != "" {
		return body.Phone
	}
	return c.IP()
}
