package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/todo-app/database"
	domain "github.com/example/todo-app/domain/notification"
	"github.com/example/todo-app/events"
	"github.com/example/todo-app/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Config configures the notification module.
type Config struct {
	Database database.Config
	SMTP     SMTPConfig
}

// NotificationModule turns task events into stored, pushed and emailed notifications.
type NotificationModule struct {
	config  Config
	db      *gorm.DB
	hub     *Hub
	cancel  context.CancelFunc
	users   UserDirectory
	service *NotificationService
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.ServiceProviderModule = (*NotificationModule)(nil)
var _ mono.DependentModule = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.HealthCheckableModule = (*NotificationModule)(nil)

// NewModule creates a new NotificationModule. The hub exists from construction
// so the API module can be wired to it before Start.
func NewModule(config Config) *NotificationModule {
	return &NotificationModule{
		config: config,
		hub:    NewHub(),
	}
}

// Name returns the module name.
func (m *NotificationModule) Name() string {
	return "notification"
}

// Dependencies declares the auth module, used to address reminder emails.
func (m *NotificationModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives the auth service container.
func (m *NotificationModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.users = auth.NewAuthAdapter(container)
	}
}

// RegisterEventConsumers subscribes to task, reminder and account events.
func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDueSoonV1, m.handleTaskDueSoon, m); err != nil {
		return fmt.Errorf("failed to register TaskDueSoon consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserDeletedV1, m.handleUserDeleted, m); err != nil {
		return fmt.Errorf("failed to register UserDeleted consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: TaskCreated, TaskCompleted, TaskDeleted, TaskDueSoon, UserDeleted")
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *NotificationModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-notifications", json.Unmarshal, json.Marshal, m.listNotifications,
	); err != nil {
		return fmt.Errorf("failed to register list-notifications service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "mark-notification-read", json.Unmarshal, json.Marshal, m.markRead,
	); err != nil {
		return fmt.Errorf("failed to register mark-notification-read service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "mark-all-read", json.Unmarshal, json.Marshal, m.markAllRead,
	); err != nil {
		return fmt.Errorf("failed to register mark-all-read service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "unread-count", json.Unmarshal, json.Marshal, m.unreadCount,
	); err != nil {
		return fmt.Errorf("failed to register unread-count service: %w", err)
	}

	log.Printf("[notification] Registered services: list-notifications, mark-notification-read, mark-all-read, unread-count")
	return nil
}

// Start opens the database, starts the hub and builds the service.
func (m *NotificationModule) Start(_ context.Context) error {
	db, err := database.Open(m.config.Database, &domain.Notification{})
	if err != nil {
		return err
	}
	m.db = db

	var mailer Mailer
	if m.config.SMTP.Enabled() {
		mailer = NewSMTPMailer(m.config.SMTP)
	}
	m.service = NewNotificationService(NewRepository(db), m.hub, mailer, m.users)

	hubCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.hub.Run(hubCtx)

	log.Printf("[notification] Module started (driver: %s, email: %t)", m.config.Database.Driver, mailer != nil)
	return nil
}

// Stop closes live connections and the database.
func (m *NotificationModule) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
		m.hub.Wait()
	}
	if err := database.Close(m.db); err != nil {
		log.Printf("[notification] Warning: failed to close database: %v", err)
	}
	log.Println("[notification] Module stopped")
	return nil
}

// Health reports database connectivity and live connection count.
func (m *NotificationModule) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connections": m.hub.ClientCount(),
			"email":       m.config.SMTP.Enabled(),
		},
	}
}

// Hub returns the live connection hub.
func (m *NotificationModule) Hub() *Hub {
	return m.hub
}

func (m *NotificationModule) handleTaskCreated(ctx context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	return m.service.TaskCreated(ctx, event)
}

func (m *NotificationModule) handleTaskCompleted(ctx context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	return m.service.TaskCompleted(ctx, event)
}

func (m *NotificationModule) handleTaskDeleted(ctx context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	return m.service.TaskDeleted(ctx, event)
}

func (m *NotificationModule) handleTaskDueSoon(ctx context.Context, event events.TaskDueSoonEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task %s of user %s is due at %s", event.TaskID, event.UserID, event.DueDate.Format("2006-01-02 15:04"))
	return m.service.TaskDueSoon(ctx, event)
}

func (m *NotificationModule) handleUserDeleted(ctx context.Context, event events.UserDeletedEvent, _ *mono.Msg) error {
	if err := m.service.PurgeUser(ctx, event.UserID); err != nil {
		log.Printf("[notification] Error: failed to purge notifications of user %s: %v", event.UserID, err)
		return err
	}
	return nil
}

func (m *NotificationModule) listNotifications(ctx context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	notifications, err := m.service.List(ctx, req.UserID, req.UnreadOnly, req.Limit)
	if err != nil {
		return ListResponse{}, err
	}
	out := make([]NotificationResponse, 0, len(notifications))
	for i := range notifications {
		out = append(out, toNotificationResponse(&notifications[i]))
	}
	return ListResponse{Notifications: out}, nil
}

func (m *NotificationModule) markRead(ctx context.Context, req MarkReadRequest, _ *mono.Msg) (MarkReadResponse, error) {
	if err := m.service.MarkRead(ctx, req.UserID, req.NotificationID); err != nil {
		return MarkReadResponse{}, err
	}
	return MarkReadResponse{Read: true}, nil
}

func (m *NotificationModule) markAllRead(ctx context.Context, req UserRequest, _ *mono.Msg) (MarkAllReadResponse, error) {
	updated, err := m.service.MarkAllRead(ctx, req.UserID)
	if err != nil {
		return MarkAllReadResponse{}, err
	}
	return MarkAllReadResponse{Updated: updated}, nil
}

func (m *NotificationModule) unreadCount(ctx context.Context, req UserRequest, _ *mono.Msg) (UnreadCountResponse, error) {
	count, err := m.service.UnreadCount(ctx, req.UserID)
	if err != nil {
		return UnreadCountResponse{}, err
	}
	return UnreadCountResponse{Count: count}, nil
}
