package notification

import (
	"time"

	domain "github.com/example/todo-app/domain/notification"
)

// List size bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ListRequest selects a user's notifications.
type ListRequest struct {
	UserID     string `json:"user_id"`
	UnreadOnly bool   `json:"unread_only"`
	Limit      int    `json:"limit"`
}

// NotificationResponse is the wire view of a notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	TaskID    string    `json:"task_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ListResponse is a list of notifications.
type ListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

// MarkReadRequest marks one notification as read.
type MarkReadRequest struct {
	UserID         string `json:"user_id"`
	NotificationID string `json:"notification_id"`
}

// MarkReadResponse acknowledges a mark-read.
type MarkReadResponse struct {
	Read bool `json:"read"`
}

// UserRequest addresses a user.
type UserRequest struct {
	UserID string `json:"user_id"`
}

// MarkAllReadResponse reports how many notifications changed.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// UnreadCountResponse reports the unread count.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

func toNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		TaskID:    n.TaskID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
