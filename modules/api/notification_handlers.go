package api

import (
	"log"
	"log/slog"

	domain "github.com/example/todo-app/domain/user"
	"github.com/example/todo-app/modules/notification"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// ListNotifications handles GET /notifications?unread_only=&limit=.
func (h *Handlers) ListNotifications(c *fiber.Ctx) error {
	req := notification.ListRequest{
		UserID:     currentUserID(c),
		UnreadOnly: c.QueryBool("unread_only", false),
		Limit:      c.QueryInt("limit", notification.DefaultListLimit),
	}
	resp, err := h.notifications.List(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// UnreadCount handles GET /notifications/unread-count.
func (h *Handlers) UnreadCount(c *fiber.Ctx) error {
	resp, err := h.notifications.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// MarkNotificationRead handles PATCH /notifications/:id/read.
func (h *Handlers) MarkNotificationRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkRead(c.UserContext(), currentUserID(c), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /notifications/read-all.
func (h *Handlers) MarkAllNotificationsRead(c *fiber.Ctx) error {
	resp, err := h.notifications.MarkAllRead(c.UserContext(), currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// notificationFeed serves the live notification websocket.
type notificationFeed struct {
	hub   *notification.Hub
	newID func() string
}

// upgrade admits websocket upgrades carrying a valid access token in the
// token query parameter. Browsers cannot set headers on websocket requests.
func (f *notificationFeed) upgrade(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		token := c.Query("token")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Token is required",
			})
		}
		claims, err := validator.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}
		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// serve registers the connection with the hub and reads until the client
// goes away. Incoming messages are ignored; the feed is server to client.
func (f *notificationFeed) serve(c *websocket.Conn) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	if !ok {
		_ = c.Close()
		return
	}

	client := &notification.Client{
		ID:     f.newID(),
		UserID: claims.UserID,
		Conn:   c,
	}
	logger := slog.Default().With("component", "websocket", "client_id", client.ID, "user_id", client.UserID)

	welcome := notification.Message{Type: "connected", Payload: map[string]string{"client_id": client.ID}}
	if err := c.WriteJSON(welcome); err != nil {
		logger.Warn("failed to send welcome", "error", err)
		return
	}

	if !f.hub.Register(client) {
		log.Printf("[api] Notification hub stopped, rejecting client %s", client.ID)
		_ = c.Close()
		return
	}
	defer f.hub.Unregister(client)

	logger.Info("notification feed connected")
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Info("notification feed closed")
			} else {
				logger.Warn("notification feed read error", "error", err)
			}
			return
		}
	}
}
