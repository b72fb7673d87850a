package api

import (
	"fmt"

	"github.com/example/todo-app/modules/notification"
	"github.com/example/todo-app/modules/ratelimit"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	nanoid "github.com/jaevor/go-nanoid"
)

// newApp builds the Fiber application with middleware and routes.
// hub and limiter are optional.
func newApp(config Config, h *Handlers, validator TokenValidator, hub *notification.Hub, limiter *ratelimit.Middleware) (*fiber.App, error) {
	newID, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create request id generator: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		IdleTimeout:           idleTimeout,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: newID}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	if hub != nil {
		ws := &notificationFeed{hub: hub, newID: newID}
		app.Use("/ws", ws.upgrade(validator))
		app.Get("/ws/notifications", websocket.New(ws.serve))
	}

	v1 := app.Group("/api/v1")
	v1.Get("/health", h.Health)
	v1.Get("/health/database", h.DatabaseHealth)

	authRoutes := v1.Group("/auth")
	if limiter != nil {
		authRoutes.Use(limiter.IPRateLimit())
	}
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", h.Refresh)
	authRoutes.Post("/logout", h.Logout)

	protected := v1.Group("", AuthMiddleware(validator))
	if limiter != nil {
		protected.Use(limiter.UserRateLimit(currentUserID))
	}

	protected.Get("/tasks", h.ListTasks)
	protected.Post("/tasks", h.CreateTask)
	protected.Post("/tasks/bulk", h.BulkTasks)
	protected.Get("/tasks/export", h.ExportTasks)
	protected.Post("/tasks/import", h.ImportTasks)
	protected.Get("/tasks/:id", h.GetTask)
	protected.Put("/tasks/:id", h.UpdateTask)
	protected.Delete("/tasks/:id", h.DeleteTask)
	protected.Patch("/tasks/:id/status", h.UpdateTaskStatus)

	protected.Get("/categories", h.ListCategories)
	protected.Post("/categories", h.CreateCategory)
	protected.Put("/categories/:id", h.UpdateCategory)
	protected.Delete("/categories/:id", h.DeleteCategory)

	protected.Get("/tags", h.ListTags)
	protected.Post("/tags", h.CreateTag)
	protected.Put("/tags/:id", h.UpdateTag)
	protected.Delete("/tags/:id", h.DeleteTag)

	protected.Get("/dashboard/statistics", h.Statistics)
	protected.Get("/dashboard/today", h.DashboardView("today"))
	protected.Get("/dashboard/upcoming", h.DashboardView("upcoming"))
	protected.Get("/dashboard/overdue", h.DashboardView("overdue"))
	protected.Get("/dashboard/activity", h.Activity)

	protected.Get("/users/me", h.GetProfile)
	protected.Put("/users/me", h.UpdateProfile)
	protected.Delete("/users/me", h.DeleteAccount)
	protected.Put("/users/me/password", h.ChangePassword)
	protected.Get("/users/me/settings", h.GetSettings)
	protected.Put("/users/me/settings", h.UpdateSettings)

	protected.Get("/notifications", h.ListNotifications)
	protected.Get("/notifications/unread-count", h.UnreadCount)
	protected.Patch("/notifications/:id/read", h.MarkNotificationRead)
	protected.Post("/notifications/read-all", h.MarkAllNotificationsRead)

	return app, nil
}
