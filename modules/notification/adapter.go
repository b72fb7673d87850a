package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// NotificationPort is the notification center as seen by other modules.
type NotificationPort interface {
	List(ctx context.Context, req *ListRequest) (*ListResponse, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (*MarkAllReadResponse, error)
	UnreadCount(ctx context.Context, userID string) (*UnreadCountResponse, error)
}

// NotificationAdapter implements NotificationPort using the service container.
type NotificationAdapter struct {
	container mono.ServiceContainer
}

var _ NotificationPort = (*NotificationAdapter)(nil)

// NewNotificationAdapter creates a new NotificationAdapter.
func NewNotificationAdapter(container mono.ServiceContainer) *NotificationAdapter {
	if container == nil {
		panic("notification adapter requires non-nil ServiceContainer")
	}
	return &NotificationAdapter{container: container}
}

// List returns a user's notifications, newest first.
func (a *NotificationAdapter) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	var resp ListResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-notifications",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-notifications service call failed: %w", err)
	}
	return &resp, nil
}

// MarkRead marks one notification as read.
func (a *NotificationAdapter) MarkRead(ctx context.Context, userID, notificationID string) error {
	req := MarkReadRequest{UserID: userID, NotificationID: notificationID}
	var resp MarkReadResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"mark-notification-read",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("mark-notification-read service call failed: %w", err)
	}
	return nil
}

// MarkAllRead marks all of a user's notifications as read.
func (a *NotificationAdapter) MarkAllRead(ctx context.Context, userID string) (*MarkAllReadResponse, error) {
	req := UserRequest{UserID: userID}
	var resp MarkAllReadResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"mark-all-read",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("mark-all-read service call failed: %w", err)
	}
	return &resp, nil
}

// UnreadCount returns the number of unread notifications.
func (a *NotificationAdapter) UnreadCount(ctx context.Context, userID string) (*UnreadCountResponse, error) {
	req := UserRequest{UserID: userID}
	var resp UnreadCountResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"unread-count",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("unread-count service call failed: %w", err)
	}
	return &resp, nil
}
