package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/todo-app/modules/auth"
	"github.com/example/todo-app/modules/notification"
	"github.com/example/todo-app/modules/ratelimit"
	"github.com/example/todo-app/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
)

// Config configures the HTTP server.
type Config struct {
	Port        int
	CORSOrigins string
}

// DefaultConfig listens on :3000 and allows every origin.
func DefaultConfig() Config {
	return Config{
		Port:        3000,
		CORSOrigins: "*",
	}
}

// APIModule is the HTTP API module.
type APIModule struct {
	config        Config
	app           *fiber.App
	auth          *auth.AuthAdapter
	tasks         task.TaskPort
	notifications notification.NotificationPort
	hub           *notification.Hub
	limiter       *ratelimit.Middleware
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(config Config) *APIModule {
	if config.Port == 0 {
		config.Port = DefaultConfig().Port
	}
	return &APIModule{config: config}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "notification"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.auth = auth.NewAuthAdapter(container)
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	case "notification":
		m.notifications = notification.NewNotificationAdapter(container)
	}
}

// SetHub sets the live notification hub (called from main.go).
func (m *APIModule) SetHub(hub *notification.Hub) {
	m.hub = hub
}

// SetRateLimiter enables rate limiting (called from main.go when Redis is configured).
func (m *APIModule) SetRateLimiter(limiter *ratelimit.Middleware) {
	m.limiter = limiter
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.auth == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.tasks == nil {
		return fmt.Errorf("task dependency not set")
	}
	if m.notifications == nil {
		return fmt.Errorf("notification dependency not set")
	}

	handlers := NewHandlers(m.auth, m.auth, m.tasks, m.notifications)
	app, err := newApp(m.config, handlers, m.auth, m.hub, m.limiter)
	if err != nil {
		return err
	}
	m.app = app

	addr := fmt.Sprintf(":%d", m.config.Port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s (rate limiting: %t)", addr, m.limiter != nil)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{
		"port":          m.config.Port,
		"rate_limiting": m.limiter != nil,
	}
	if m.hub != nil {
		details["websocket_clients"] = m.hub.ClientCount()
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 60 * time.Second
	idleTimeout  = 120 * time.Second
)
