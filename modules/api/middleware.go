package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fillip1984/inveniam/modules/auth"
	"github.com/fillip1984/inveniam/modules/ratelimit"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
	// UserIDKey holds the authenticated user id; the rate limiter reads it.
	UserIDKey = ratelimit.UserIDLocal
)

// AuthMiddleware validates the bearer token in the Authorization header.
func AuthMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		return authenticate(c, authAdapter, strings.TrimPrefix(authHeader, "Bearer "))
	}
}

// QueryTokenMiddleware authenticates with ?token=, for websocket upgrades
// where browsers cannot set headers.
func QueryTokenMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authenticate(c, authAdapter, c.Query("token"))
	}
}

func authenticate(c *fiber.Ctx, authAdapter auth.AuthPort, token string) error {
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Token is required",
		})
	}

	claims, err := authAdapter.ValidateToken(c.UserContext(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired token",
		})
	}

	c.Locals(UserContextKey, claims)
	c.Locals(UserIDKey, claims.UserID)
	return c.Next()
}

// callerID returns the user id set by the auth middleware.
func callerID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
