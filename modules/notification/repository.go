package notification

import (
	"errors"
	"fmt"

	domain "github.com/example/todo-app/domain/notification"
	"gorm.io/gorm"
)

var (
	// ErrNotificationNotFound is returned when a notification does not exist or belongs to another user.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrDuplicateNotification is returned when a notification with the same dedupe key exists.
	ErrDuplicateNotification = errors.New("notification already exists")
)

// Repository persists notifications using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a notification. Notifications with a dedupe key already on
// record are rejected with ErrDuplicateNotification.
func (r *Repository) Create(n *domain.Notification) error {
	if n.DedupeKey != nil {
		var count int64
		if err := r.db.Model(&domain.Notification{}).Where("dedupe_key = ?", *n.DedupeKey).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check notification: %w", err)
		}
		if count > 0 {
			return ErrDuplicateNotification
		}
	}
	if err := r.db.Create(n).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateNotification
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// List returns the newest notifications of a user first.
func (r *Repository) List(userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	var notifications []domain.Notification
	q := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	if err := q.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one notification of the user as read.
func (r *Repository) MarkRead(userID, id string) error {
	var n domain.Notification
	if err := r.db.First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to find notification: %w", err)
	}
	if n.Read {
		return nil
	}
	if err := r.db.Model(&n).Update("read", true).Error; err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (r *Repository) MarkAllRead(userID string) (int64, error) {
	result := r.db.Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected, nil
}

// UnreadCount returns the number of unread notifications of the user.
func (r *Repository) UnreadCount(userID string) (int64, error) {
	var count int64
	if err := r.db.Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// DeleteByUser removes every notification of the user.
func (r *Repository) DeleteByUser(userID string) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&domain.Notification{}).Error; err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}
