// Package ratelimit provides domain types for request rate limiting.
package ratelimit

import (
	"context"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerWindow is the maximum number of requests allowed in the window.
	RequestsPerWindow int
	// WindowSize is the duration of the sliding window.
	WindowSize time.Duration
}

// Enabled reports whether the config actually limits anything.
func (c Config) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.WindowSize > 0
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is only set when the request was rejected.
	RetryAfter time.Duration
}

// Limiter checks whether the request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// MiddlewareConfig configures the HTTP rate limiting middleware.
type MiddlewareConfig struct {
	// IPConfig limits unauthenticated routes per client address.
	IPConfig Config
	// UserConfig limits authenticated routes per user.
	UserConfig Config
	// KeyPrefix namespaces every limiter key in Redis.
	KeyPrefix string
}

// DefaultIPConfig allows 60 requests per minute per address.
func DefaultIPConfig() Config {
	return Config{
		RequestsPerWindow: 60,
		WindowSize:        time.Minute,
	}
}

// DefaultUserConfig allows 600 requests per minute per user.
func DefaultUserConfig() Config {
	return Config{
		RequestsPerWindow: 600,
		WindowSize:        time.Minute,
	}
}

// DefaultMiddlewareConfig returns the default middleware configuration.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		IPConfig:   DefaultIPConfig(),
		UserConfig: DefaultUserConfig(),
		KeyPrefix:  "ratelimit:",
	}
}
