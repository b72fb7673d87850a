package ratelimit

import (
	"context"
	"fmt"
	"log"

	"github.com/example/todo-app/domain/ratelimit"
	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module exposes the rate limiting middleware as a mono module.
// The Redis client is owned by the cache module.
type Module struct {
	client     *redis.Client
	config     ratelimit.MiddlewareConfig
	middleware *Middleware
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule builds the middleware immediately so the API module can be wired before Start.
func NewModule(client *redis.Client, config ratelimit.MiddlewareConfig) *Module {
	return &Module{
		client:     client,
		config:     config,
		middleware: NewMiddleware(client, config),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ratelimit"
}

// Start logs the active limits.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[ratelimit] Module started (ip: %d/%s, user: %d/%s)",
		m.config.IPConfig.RequestsPerWindow, m.config.IPConfig.WindowSize,
		m.config.UserConfig.RequestsPerWindow, m.config.UserConfig.WindowSize)
	return nil
}

// Stop is a no-op; the shared client is closed by its owner.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[ratelimit] Module stopped")
	return nil
}

// Health pings Redis.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v (requests are allowed)", err),
		}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// GetMiddleware returns the Fiber middleware.
func (m *Module) GetMiddleware() *Middleware {
	return m.middleware
}
