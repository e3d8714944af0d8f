package ratelimit

import (
	"strconv"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// UserIDLocal is the fiber.Ctx local the auth middleware stores the caller in.
const UserIDLocal = "user_id"

// ErrorResponse is the body of a 429 response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Middleware limits Fiber requests by user, falling back to client IP.
type Middleware struct {
	ipLimiter   *SlidingWindowLimiter
	userLimiter *SlidingWindowLimiter
	config      MiddlewareConfig
	logger      types.Logger
}

// NewMiddleware creates a new rate limiting middleware.
func NewMiddleware(client *redis.Client, config MiddlewareConfig, logger types.Logger) *Middleware {
	return &Middleware{
		ipLimiter:   NewSlidingWindowLimiter(client, config.IPConfig, config.KeyPrefix+"ip:"),
		userLimiter: NewSlidingWindowLimiter(client, config.UserConfig, config.KeyPrefix+"user:"),
		config:      config,
		logger:      logger,
	}
}

// IPRateLimit limits requests by client IP.
func (m *Middleware) IPRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return m.check(c, m.ipLimiter, c.IP())
	}
}

// UserRateLimit limits requests by the authenticated user, or by IP when the
// request carries no user.
func (m *Middleware) UserRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(UserIDLocal).(string)
		if !ok || userID == "" {
			return m.check(c, m.ipLimiter, c.IP())
		}
		return m.check(c, m.userLimiter, userID)
	}
}

func (m *Middleware) check(c *fiber.Ctx, limiter *SlidingWindowLimiter, key string) error {
	if key == "" {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "unable to determine client identity",
		})
	}

	result, err := limiter.Allow(c.UserContext(), key)
	if err != nil {
		// Redis outages do not take the API down.
		m.logger.Warn("Rate limit check failed", "key", key, "error", err)
		return c.Next()
	}

	setRateLimitHeaders(c, result, limiter.Config().RequestsPerWindow)
	if !result.Allowed {
		return sendRateLimitExceeded(c, result)
	}
	return c.Next()
}

func setRateLimitHeaders(c *fiber.Ctx, result *Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func sendRateLimitExceeded(c *fiber.Ctx, result *Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
	return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
		Error:   "rate_limited",
		Message: "rate limit exceeded, retry after " + strconv.Itoa(retryAfter) + "s",
	})
}

// Passthrough is used when rate limiting is disabled.
func Passthrough() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}
