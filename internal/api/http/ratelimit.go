package http

import (
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/grievance-portal/pkg/util"
)

// RateLimit applies a fixed-window per-IP limit backed by Redis. This is the
// abuse-throttling collaborator in front of the OTP and login endpoints; it
// fails open when Redis is unreachable so auth availability does not depend
// on the limiter.
func RateLimit(client *redis.Client, logger *zap.Logger, scope string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || limit <= 0 {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s:%s", scope, c.IP())
		count, err := client.Incr(c.Context(), key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			client.Expire(c.Context(), key, window)
		}
		if count > int64(limit) {
			return apperrors.NewDomainError("RATE_LIMITED", "too many requests, slow down", nethttp.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}
