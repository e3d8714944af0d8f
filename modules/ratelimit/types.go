// Package ratelimit limits API requests per user and per client IP with a
// Redis sliding window.
package ratelimit

import "time"

// Config holds one limit.
type Config struct {
	// RequestsPerWindow is the maximum number of requests allowed in the window.
	RequestsPerWindow int
	// WindowSize is the duration of the sliding window.
	WindowSize time.Duration
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is only set when the request was denied.
	RetryAfter time.Duration
}

// MiddlewareConfig configures the per-IP and per-user limits.
type MiddlewareConfig struct {
	IPConfig   Config
	UserConfig Config
	KeyPrefix  string
}

// DefaultMiddlewareConfig returns per-minute limits of 30 requests per IP and 600 per user.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		IPConfig:   Config{RequestsPerWindow: 30, WindowSize: time.Minute},
		UserConfig: Config{RequestsPerWindow: 600, WindowSize: time.Minute},
		KeyPrefix:  "inveniam:ratelimit:",
	}
}
