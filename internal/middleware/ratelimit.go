package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
	"github.com/tankas-app/tankas-api/pkg/response"
)

// RateLimitConfig bounds how often one user may hit a route.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	Prefix string
}

// RateLimit counts requests per authenticated user in a fixed Redis window.
// The first request of a window sets the expiry. Requests pass through when no
// Redis client is configured, and Redis failures fail open with a warning.
func RateLimit(client *redis.Client, cfg RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}

	return func(c *gin.Context) {
		if client == nil || cfg.Limit <= 0 {
			c.Next()
			return
		}
		username := Username(c)
		if username == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		key := cfg.Prefix + ":" + username
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(ctx, key, cfg.Window).Err(); err != nil {
				log.Warn("rate limiter expiry failed", zap.String("key", key), zap.Error(err))
			}
		}

		if count > int64(cfg.Limit) {
			retryAfter, err := client.TTL(ctx, key).Result()
			if err != nil || retryAfter < 0 {
				retryAfter = cfg.Window
			}
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			response.ErrorWithMeta(c, appErrors.ErrTooManyRequests, map[string]interface{}{"retry_after": seconds})
			c.Abort()
			return
		}

		c.Next()
	}
}
