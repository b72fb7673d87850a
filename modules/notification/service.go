package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	domain "github.com/example/todo-app/domain/notification"
	"github.com/example/todo-app/domain/user"
	"github.com/example/todo-app/events"
	"github.com/google/uuid"
)

// UserDirectory resolves account data needed to email reminders.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*user.User, error)
	GetSettings(ctx context.Context, userID string) (*user.Settings, error)
}

// NotificationService stores notifications, pushes them to live connections
// and emails due reminders.
type NotificationService struct {
	repo   *Repository
	hub    *Hub
	mailer Mailer
	users  UserDirectory
}

// NewNotificationService creates a NotificationService. hub, mailer and users may be nil.
func NewNotificationService(repo *Repository, hub *Hub, mailer Mailer, users UserDirectory) *NotificationService {
	return &NotificationService{
		repo:   repo,
		hub:    hub,
		mailer: mailer,
		users:  users,
	}
}

// TaskCreated records a task creation.
func (s *NotificationService) TaskCreated(ctx context.Context, e events.TaskCreatedEvent) error {
	msg := fmt.Sprintf("New task '%s' was created", e.Title)
	if e.DueDate != nil {
		msg = fmt.Sprintf("New task '%s' is due %s", e.Title, e.DueDate.UTC().Format(time.RFC1123))
	}
	return s.notify(ctx, &domain.Notification{
		UserID:  e.UserID,
		Type:    domain.TypeTaskCreated,
		Title:   "Task created",
		Message: msg,
		TaskID:  e.TaskID,
	})
}

// TaskCompleted records a task completion.
func (s *NotificationService) TaskCompleted(ctx context.Context, e events.TaskCompletedEvent) error {
	return s.notify(ctx, &domain.Notification{
		UserID:  e.UserID,
		Type:    domain.TypeTaskCompleted,
		Title:   "Task completed",
		Message: fmt.Sprintf("Task '%s' was completed", e.Title),
		TaskID:  e.TaskID,
	})
}

// TaskDeleted records a task deletion.
func (s *NotificationService) TaskDeleted(ctx context.Context, e events.TaskDeletedEvent) error {
	return s.notify(ctx, &domain.Notification{
		UserID:  e.UserID,
		Type:    domain.TypeTaskDeleted,
		Title:   "Task deleted",
		Message: fmt.Sprintf("Task '%s' was deleted", e.Title),
		TaskID:  e.TaskID,
	})
}

// TaskDueSoon records a due reminder once per task and due date and emails it
// when the user allows reminder emails. Repeated reminders are ignored.
func (s *NotificationService) TaskDueSoon(ctx context.Context, e events.TaskDueSoonEvent) error {
	key := domain.ReminderKey(e.TaskID, e.DueDate)
	err := s.notify(ctx, &domain.Notification{
		UserID:    e.UserID,
		Type:      domain.TypeDueReminder,
		Title:     "Task due soon",
		Message:   fmt.Sprintf("Task '%s' is due %s", e.Title, e.DueDate.UTC().Format(time.RFC1123)),
		TaskID:    e.TaskID,
		DedupeKey: &key,
	})
	if errors.Is(err, ErrDuplicateNotification) {
		return nil
	}
	if err != nil {
		return err
	}

	s.emailReminder(ctx, e)
	return nil
}

func (s *NotificationService) emailReminder(ctx context.Context, e events.TaskDueSoonEvent) {
	if s.mailer == nil || s.users == nil {
		return
	}

	settings, err := s.users.GetSettings(ctx, e.UserID)
	if err != nil {
		log.Printf("[notification] Warning: cannot load settings of user %s: %v", e.UserID, err)
		return
	}
	if !settings.WantsReminderEmails() {
		return
	}
	u, err := s.users.GetUser(ctx, e.UserID)
	if err != nil {
		log.Printf("[notification] Warning: cannot load user %s: %v", e.UserID, err)
		return
	}

	data := ReminderEmail{
		Name:    u.Name,
		Title:   e.Title,
		DueDate: e.DueDate.In(settings.Location()),
	}
	if err := s.mailer.SendReminder(u.Email, data); err != nil {
		log.Printf("[notification] Warning: reminder email for task %s not sent: %v", e.TaskID, err)
		return
	}
	log.Printf("[notification] Reminder email sent for task %s", e.TaskID)
}

func (s *NotificationService) notify(_ context.Context, n *domain.Notification) error {
	n.ID = uuid.New().String()
	if err := s.repo.Create(n); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.SendToUser(n.UserID, Message{Type: "notification", Payload: toNotificationResponse(n)})
	}
	return nil
}

// List returns the newest notifications of a user.
func (s *NotificationService) List(_ context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(userID, unreadOnly, limit)
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(_ context.Context, userID, id string) error {
	return s.repo.MarkRead(userID, id)
}

// MarkAllRead marks every notification of the user as read.
func (s *NotificationService) MarkAllRead(_ context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(userID)
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(_ context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(userID)
}

// PurgeUser deletes the notifications of a removed account.
func (s *NotificationService) PurgeUser(_ context.Context, userID string) error {
	return s.repo.DeleteByUser(userID)
}
