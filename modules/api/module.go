// Package api exposes inveniam over HTTP: the RPC boundary, auth endpoints,
// attachment uploads and the live board feed.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/fillip1984/inveniam/config"
	"github.com/fillip1984/inveniam/modules/attachments"
	"github.com/fillip1984/inveniam/modules/auth"
	"github.com/fillip1984/inveniam/modules/live"
	"github.com/fillip1984/inveniam/modules/ratelimit"
)

// RateLimiter supplies the per-IP and per-user limit handlers.
type RateLimiter interface {
	IPRateLimit() fiber.Handler
	UserRateLimit() fiber.Handler
}

// APIModule is the HTTP API module.
type APIModule struct {
	cfg         config.HTTP
	app         *fiber.App
	containers  containerCaller
	authAdapter *auth.AuthAdapter
	attachments *attachments.Module
	live        *live.LiveModule
	limiter     RateLimiter
	logger      types.Logger
}

var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
)

// NewModule creates a new APIModule. The attachments, live and rate limit
// modules are used directly for uploads, websockets and middleware.
func NewModule(cfg config.HTTP, attachmentsModule *attachments.Module, liveModule *live.LiveModule, limiter *ratelimit.Module, logger types.Logger) *APIModule {
	m := &APIModule{
		cfg:         cfg,
		containers:  containerCaller{},
		attachments: attachmentsModule,
		live:        liveModule,
		logger:      logger,
	}
	if limiter != nil {
		m.limiter = limiter
	}
	return m
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "boards", "tasks", "tags", "admin", "attachments", "live", "ratelimit"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	m.containers[dependency] = container
	if dependency == "auth" {
		m.authAdapter = auth.NewAuthAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}

	objects := func() ObjectStore {
		if m.attachments == nil {
			return nil
		}
		if svc := m.attachments.Service(); svc != nil {
			return svc
		}
		return nil
	}
	if m.live == nil {
		return fmt.Errorf("live module not set")
	}
	handlers := NewHandlers(m.containers, m.authAdapter, m.authAdapter, objects, m.live, m.logger)
	rpc := NewRPCHandlers(m.containers, m.authAdapter)
	m.app = newApp(m.cfg, handlers, rpc, m.authAdapter, m.limiter)

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.cfg.Addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", m.cfg.Addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.cfg.Addr,
		},
	}
}

// newApp builds the Fiber application and its routes.
func newApp(cfg config.HTTP, h *Handlers, rpc *RPCHandlers, authAdapter auth.AuthPort, limiter RateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "inveniam",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	if limiter == nil {
		limiter = passthroughLimiter{}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	v1 := app.Group("/api/v1")

	authRoutes := v1.Group("/auth", limiter.IPRateLimit())
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", h.Refresh)

	profile := v1.Group("/profile", AuthMiddleware(authAdapter), limiter.UserRateLimit())
	profile.Get("", h.Profile)
	profile.Put("", h.UpdateProfile)

	rpcRoutes := app.Group("/api/rpc")
	rpcRoutes.Get("/:procedure", rpc.Resolve, limiter.UserRateLimit(), rpc.Dispatch)
	rpcRoutes.Post("/:procedure", rpc.Resolve, limiter.UserRateLimit(), rpc.Dispatch)

	uploads := app.Group("/uploads", limiter.IPRateLimit())
	uploads.Put("/:bucket/:key", h.Upload)
	uploads.Get("/:bucket/:key", h.Download)

	app.Get("/ws/boards/:id",
		QueryTokenMiddleware(authAdapter),
		h.BoardFeedGuard,
		websocket.New(h.BoardFeed),
	)

	return app
}

type passthroughLimiter struct{}

func (passthroughLimiter) IPRateLimit() fiber.Handler   { return ratelimit.Passthrough() }
func (passthroughLimiter) UserRateLimit() fiber.Handler { return ratelimit.Passthrough() }
