package ratelimit

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"worktime/internal/apperr"
)

// ByIP limits requests per client IP. Limiter errors let the request through.
func ByIP(l *SlidingWindow, log *slog.Logger) fiber.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		res, err := l.Allow(c.UserContext(), c.IP())
		if err != nil {
			log.Warn("rate limiter unavailable", "path", c.Path(), "err", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.Limit()))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return apperr.TooManyRequests(fmt.Sprintf("Too many requests, retry after %d seconds.", retryAfter))
		}
		return c.Next()
	}
}
