package ratelimit

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/example/todo-app/domain/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Middleware provides rate limiting handlers for Fiber.
type Middleware struct {
	ipLimiter   ratelimit.Limiter
	userLimiter ratelimit.Limiter
	config      ratelimit.MiddlewareConfig
	logger      *slog.Logger
}

// NewMiddleware creates IP and user limiters sharing client.
func NewMiddleware(client *redis.Client, config ratelimit.MiddlewareConfig) *Middleware {
	return &Middleware{
		ipLimiter:   NewSlidingWindowLimiter(client, config.IPConfig, config.KeyPrefix+"ip:"),
		userLimiter: NewSlidingWindowLimiter(client, config.UserConfig, config.KeyPrefix+"user:"),
		config:      config,
		logger:      slog.Default().With("component", "ratelimit"),
	}
}

// IPRateLimit limits requests by client address.
func (m *Middleware) IPRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "Unable to determine client IP address",
			})
		}
		return m.apply(c, m.ipLimiter, ip, m.config.IPConfig.RequestsPerWindow)
	}
}

// UserRateLimit limits requests by the user key extracted from the request.
// Requests without a user fall back to the IP limit.
func (m *Middleware) UserRateLimit(userKey func(*fiber.Ctx) string) fiber.Handler {
	ipLimit := m.IPRateLimit()
	return func(c *fiber.Ctx) error {
		userID := userKey(c)
		if userID == "" {
			return ipLimit(c)
		}
		return m.apply(c, m.userLimiter, userID, m.config.UserConfig.RequestsPerWindow)
	}
}

// apply fails open: a limiter error lets the request through.
func (m *Middleware) apply(c *fiber.Ctx, limiter ratelimit.Limiter, key string, limit int) error {
	result, err := limiter.Allow(c.UserContext(), key)
	if err != nil {
		m.logger.Warn("rate limiter unavailable, allowing request",
			"path", c.Path(),
			"error", err,
		)
		return c.Next()
	}

	setRateLimitHeaders(c, result, limit)
	if !result.Allowed {
		m.logger.Info("rate limit exceeded", "path", c.Path(), "retry_after", result.RetryAfter)
		return sendRateLimitExceeded(c, result)
	}
	return c.Next()
}

func setRateLimitHeaders(c *fiber.Ctx, result *ratelimit.Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func sendRateLimitExceeded(c *fiber.Ctx, result *ratelimit.Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set("Retry-After", strconv.Itoa(retryAfter))
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":       "too_many_requests",
		"message":     fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
		"retry_after": retryAfter,
	})
}
