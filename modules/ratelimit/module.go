package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fillip1984/inveniam/config"
)

// Module owns the Redis client backing the API rate limits. With an empty
// redis address it stays disabled and hands out pass-through handlers.
type Module struct {
	redisCfg   config.Redis
	config     MiddlewareConfig
	client     *redis.Client
	middleware *Middleware
	logger     types.Logger
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a rate limit module from the redis and ratelimit settings.
func NewModule(redisCfg config.Redis, limits config.RateLimit, logger types.Logger) *Module {
	cfg := DefaultMiddlewareConfig()
	if limits.IPRequestsPerMinute > 0 {
		cfg.IPConfig = Config{RequestsPerWindow: limits.IPRequestsPerMinute, WindowSize: time.Minute}
	}
	if limits.UserRequestsPerMinute > 0 {
		cfg.UserConfig = Config{RequestsPerWindow: limits.UserRequestsPerMinute, WindowSize: time.Minute}
	}
	return &Module{
		redisCfg: redisCfg,
		config:   cfg,
		logger:   logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ratelimit"
}

// Enabled reports whether a redis address was configured.
func (m *Module) Enabled() bool {
	return m.redisCfg.Addr != ""
}

// Start connects to Redis and builds the middleware.
func (m *Module) Start(ctx context.Context) error {
	if !m.Enabled() {
		m.logger.Info("Rate limiting disabled, no redis address configured")
		return nil
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:     m.redisCfg.Addr,
		Password: m.redisCfg.Password,
		DB:       m.redisCfg.DB,
	})
	if err := m.client.Ping(ctx).Err(); err != nil {
		_ = m.client.Close()
		m.client = nil
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.middleware = NewMiddleware(m.client, m.config, m.logger)
	m.logger.Info("Rate limit module started",
		"redis", m.redisCfg.Addr,
		"ip_per_minute", m.config.IPConfig.RequestsPerWindow,
		"user_per_minute", m.config.UserConfig.RequestsPerWindow)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Error("Error closing Redis connection", "error", err)
		}
	}
	m.logger.Info("Rate limit module stopped")
	return nil
}

// Health reports the Redis connection status.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if !m.Enabled() {
		return mono.HealthStatus{Healthy: true, Message: "disabled"}
	}
	if m.client == nil {
		return mono.HealthStatus{Healthy: false, Message: "redis client not initialized"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// UserRateLimit returns the per-user handler, or a pass-through when disabled.
func (m *Module) UserRateLimit() fiber.Handler {
	if m.middleware == nil {
		return Passthrough()
	}
	return m.middleware.UserRateLimit()
}

// IPRateLimit returns the per-IP handler, or a pass-through when disabled.
func (m *Module) IPRateLimit() fiber.Handler {
	if m.middleware == nil {
		return Passthrough()
	}
	return m.middleware.IPRateLimit()
}
