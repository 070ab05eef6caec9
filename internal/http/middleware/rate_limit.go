package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 30,
		Window:      time.Minute,
		KeyPrefix:   "shortlink:ratelimit",
	}
}

// RateLimit is a fixed-window per-IP limiter backed by Redis. Requests pass
// through when Redis is unavailable.
func RateLimit(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) fiber.Handler {
	defaults := DefaultRateLimitConfig()
	if config.MaxRequests <= 0 {
		config.MaxRequests = defaults.MaxRequests
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaults.KeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if redisClient == nil {
			return c.Next()
		}

		ctx := c.UserContext()
		key := config.KeyPrefix + ":" + c.IP()

		result, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit redis error", zap.Error(err))
			return c.Next()
		}

		// First hit opens the window.
		if result == 1 {
			if err := redisClient.Expire(ctx, key, config.Window).Err(); err != nil {
				logger.Warn("rate limit expire failed", zap.Error(err), zap.String("key", key))
			}
		}

		remaining := config.MaxRequests - int(result)
		c.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, remaining)))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(config.Window).Unix(), 10))

		if result > int64(config.MaxRequests) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		}

		return c.Next()
	}
}
