package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/todo-app/database"
	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/events"
	"github.com/example/todo-app/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Config configures the task module.
type Config struct {
	Database database.Config
	// StatsCache caches dashboard statistics. Nil disables caching.
	StatsCache cache.Service
}

// TaskModule owns tasks, categories and tags and serves the dashboard.
type TaskModule struct {
	config   Config
	db       *gorm.DB
	service  *TaskService
	eventBus mono.EventBus
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.EventConsumerModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(config Config) *TaskModule {
	return &TaskModule{config: config}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// SetEventBus receives the event bus used for task lifecycle events.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events published by this module.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// RegisterEventConsumers subscribes to account removal.
func (m *TaskModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.UserDeletedV1, m.handleUserDeleted, m); err != nil {
		return fmt.Errorf("failed to register UserDeleted consumer: %w", err)
	}
	log.Printf("[task] Registered event consumers: UserDeleted")
	return nil
}

// Start opens the task database and builds the service.
func (m *TaskModule) Start(_ context.Context) error {
	db, err := database.Open(m.config.Database, &domain.Task{}, &domain.Category{}, &domain.Tag{})
	if err != nil {
		return err
	}
	m.db = db
	m.service = NewTaskService(NewTaskRepository(db), m.config.StatsCache)

	if m.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	log.Printf("[task] Module started (driver: %s, database: %s, stats cache: %t)",
		m.config.Database.Driver, m.config.Database.DSN, m.config.StatsCache != nil)
	return nil
}

// Stop closes the database.
func (m *TaskModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		log.Printf("[task] Warning: failed to close database: %v", err)
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health reports database connectivity.
func (m *TaskModule) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":      m.config.Database.Driver,
			"stats_cache": m.config.StatsCache != nil,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task-status", json.Unmarshal, json.Marshal, m.updateTaskStatus,
	); err != nil {
		return fmt.Errorf("failed to register update-task-status service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "bulk-tasks", json.Unmarshal, json.Marshal, m.bulkTasks,
	); err != nil {
		return fmt.Errorf("failed to register bulk-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "export-tasks", json.Unmarshal, json.Marshal, m.exportTasks,
	); err != nil {
		return fmt.Errorf("failed to register export-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "import-tasks", json.Unmarshal, json.Marshal, m.importTasks,
	); err != nil {
		return fmt.Errorf("failed to register import-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-category", json.Unmarshal, json.Marshal, m.createCategory,
	); err != nil {
		return fmt.Errorf("failed to register create-category service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-categories", json.Unmarshal, json.Marshal, m.listCategories,
	); err != nil {
		return fmt.Errorf("failed to register list-categories service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-category", json.Unmarshal, json.Marshal, m.updateCategory,
	); err != nil {
		return fmt.Errorf("failed to register update-category service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-category", json.Unmarshal, json.Marshal, m.deleteCategory,
	); err != nil {
		return fmt.Errorf("failed to register delete-category service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-tag", json.Unmarshal, json.Marshal, m.createTag,
	); err != nil {
		return fmt.Errorf("failed to register create-tag service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tags", json.Unmarshal, json.Marshal, m.listTags,
	); err != nil {
		return fmt.Errorf("failed to register list-tags service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-tag", json.Unmarshal, json.Marshal, m.updateTag,
	); err != nil {
		return fmt.Errorf("failed to register update-tag service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-tag", json.Unmarshal, json.Marshal, m.deleteTag,
	); err != nil {
		return fmt.Errorf("failed to register delete-tag service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-statistics", json.Unmarshal, json.Marshal, m.getStatistics,
	); err != nil {
		return fmt.Errorf("failed to register get-statistics service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-dashboard-tasks", json.Unmarshal, json.Marshal, m.getDashboardTasks,
	); err != nil {
		return fmt.Errorf("failed to register get-dashboard-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-activity", json.Unmarshal, json.Marshal, m.getActivity,
	); err != nil {
		return fmt.Errorf("failed to register get-activity service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "due-soon-tasks", json.Unmarshal, json.Marshal, m.dueSoonTasks,
	); err != nil {
		return fmt.Errorf("failed to register due-soon-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "database-health", json.Unmarshal, json.Marshal, m.databaseHealth,
	); err != nil {
		return fmt.Errorf("failed to register database-health service: %w", err)
	}

	log.Printf("[task] Registered services: create-task, get-task, update-task, update-task-status, delete-task, " +
		"list-tasks, bulk-tasks, export-tasks, import-tasks, create-category, list-categories, update-category, " +
		"delete-category, create-tag, list-tags, update-tag, delete-tag, get-statistics, get-dashboard-tasks, " +
		"get-activity, due-soon-tasks, database-health")
	return nil
}

func (m *TaskModule) publishCreated(task *domain.Task) {
	if m.eventBus == nil {
		return
	}
	event := events.TaskCreatedEvent{
		TaskID:    task.ID,
		UserID:    task.UserID,
		Title:     task.Title,
		Priority:  string(task.Priority),
		DueDate:   task.DueDate,
		CreatedAt: task.CreatedAt,
	}
	if err := events.TaskCreatedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", task.ID, err)
	}
}

func (m *TaskModule) publishCompleted(task *domain.Task) {
	if m.eventBus == nil {
		return
	}
	completedAt := time.Now()
	if task.CompletedAt != nil {
		completedAt = *task.CompletedAt
	}
	event := events.TaskCompletedEvent{
		TaskID:      task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		CompletedAt: completedAt,
	}
	if err := events.TaskCompletedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskCompleted event for task %s: %v", task.ID, err)
	}
}

func (m *TaskModule) publishDeleted(task *domain.Task) {
	if m.eventBus == nil {
		return
	}
	event := events.TaskDeletedEvent{
		TaskID:    task.ID,
		UserID:    task.UserID,
		Title:     task.Title,
		DeletedAt: task.UpdatedAt,
	}
	if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", task.ID, err)
	}
}

func (m *TaskModule) handleUserDeleted(ctx context.Context, event events.UserDeletedEvent, _ *mono.Msg) error {
	if err := m.service.PurgeUser(ctx, event.UserID); err != nil {
		log.Printf("[task] Error: failed to purge data of user %s: %v", event.UserID, err)
		return err
	}
	log.Printf("[task] Purged tasks, categories and tags of user %s", event.UserID)
	return nil
}
