package api

import (
	"context"

	"github.com/example/todo-app/domain/user"
	"github.com/example/todo-app/modules/auth"
	"github.com/example/todo-app/modules/notification"
	"github.com/example/todo-app/modules/task"
	"github.com/gofiber/fiber/v2"
)

// UserLookup reads account data of the authenticated user.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*user.User, error)
	GetSettings(ctx context.Context, userID string) (*user.Settings, error)
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	accounts      auth.AccountPort
	users         UserLookup
	tasks         task.TaskPort
	notifications notification.NotificationPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(accounts auth.AccountPort, users UserLookup, tasks task.TaskPort, notifications notification.NotificationPort) *Handlers {
	return &Handlers{
		accounts:      accounts,
		users:         users,
		tasks:         tasks,
		notifications: notifications,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	resp, err := h.accounts.Register(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	resp, err := h.accounts.Login(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// Refresh handles token refresh. Every failure is reported as 401 so the
// client can drop its session.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	resp, err := h.accounts.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
		})
	}
	return c.JSON(resp)
}

// Logout acknowledges a logout. Tokens are stateless; the client discards them.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	return c.JSON(MessageResponse{Message: "Logged out successfully"})
}

// GetProfile returns the authenticated user.
func (h *Handlers) GetProfile(c *fiber.Ctx) error {
	u, err := h.users.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(auth.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	})
}

// UpdateProfile changes name and email.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var req auth.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserID = currentUserID(c)

	resp, err := h.accounts.UpdateUser(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// DeleteAccount removes the authenticated user and all of their data.
func (h *Handlers) DeleteAccount(c *fiber.Ctx) error {
	if err := h.accounts.DeleteUser(c.UserContext(), currentUserID(c)); err != nil {
		return handleServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangePassword replaces the password of the authenticated user.
func (h *Handlers) ChangePassword(c *fiber.Ctx) error {
	var req auth.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserID = currentUserID(c)

	if err := h.accounts.ChangePassword(c.UserContext(), &req); err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Password changed successfully"})
}

// GetSettings returns the preferences of the authenticated user.
func (h *Handlers) GetSettings(c *fiber.Ctx) error {
	s, err := h.users.GetSettings(c.UserContext(), currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(auth.SettingsResponse{
		UserID:               s.UserID,
		Theme:                s.Theme,
		TimeZone:             s.TimeZone,
		Language:             s.Language,
		NotificationsEnabled: s.NotificationsEnabled,
		EmailNotifications:   s.EmailNotifications,
		TaskReminders:        s.TaskReminders,
		UpdatedAt:            s.UpdatedAt,
	})
}

// UpdateSettings changes the preferences of the authenticated user.
func (h *Handlers) UpdateSettings(c *fiber.Ctx) error {
	var req auth.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserID = currentUserID(c)

	resp, err := h.accounts.UpdateSettings(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// Health reports API liveness.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: map[string]any{"module": "api"},
	})
}

// DatabaseHealth reports task database connectivity.
func (h *Handlers) DatabaseHealth(c *fiber.Ctx) error {
	resp, err := h.tasks.DatabaseHealth(c.UserContext())
	if err != nil || !resp.Healthy {
		message := "database unavailable"
		if err == nil {
			message = resp.Message
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status:  "unhealthy",
			Details: map[string]any{"database": message},
		})
	}
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: map[string]any{"database": resp.Driver},
	})
}

// timeZone returns the zone calendar views are evaluated in: the time_zone
// query parameter, else the user's setting, else UTC.
func (h *Handlers) timeZone(c *fiber.Ctx) string {
	if tz := c.Query("time_zone"); tz != "" {
		return tz
	}
	settings, err := h.users.GetSettings(c.UserContext(), currentUserID(c))
	if err != nil || settings.TimeZone == "" {
		return "UTC"
	}
	return settings.TimeZone
}
