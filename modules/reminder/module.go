package reminder

import (
	"context"
	"fmt"
	"log"

	"github.com/example/todo-app/events"
	"github.com/example/todo-app/modules/task"
	"github.com/go-monolith/mono"
)

// ReminderModule runs the due-date scan as a mono module.
type ReminderModule struct {
	config   WorkerConfig
	tasks    TaskSource
	eventBus mono.EventBus
	worker   *Worker
}

var _ mono.Module = (*ReminderModule)(nil)
var _ mono.DependentModule = (*ReminderModule)(nil)
var _ mono.EventEmitterModule = (*ReminderModule)(nil)
var _ mono.HealthCheckableModule = (*ReminderModule)(nil)

// NewModule creates a new ReminderModule.
func NewModule(config WorkerConfig) *ReminderModule {
	return &ReminderModule{config: config}
}

// Name returns the module name.
func (m *ReminderModule) Name() string {
	return "reminder"
}

// Dependencies declares the task module, which owns due dates.
func (m *ReminderModule) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives the task service container.
func (m *ReminderModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "task" {
		m.tasks = task.NewTaskAdapter(container)
	}
}

// SetEventBus receives the event bus used for due reminders.
func (m *ReminderModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events published by this module.
func (m *ReminderModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskDueSoonV1.ToBase(),
	}
}

// Start launches the worker.
func (m *ReminderModule) Start(_ context.Context) error {
	if m.tasks == nil {
		return fmt.Errorf("reminder module requires the task module")
	}
	m.worker = NewWorker(m.config, m.tasks, m.publish)
	if err := m.worker.Start(); err != nil {
		return err
	}
	log.Println("[reminder] Module started")
	return nil
}

// Stop stops the worker gracefully.
func (m *ReminderModule) Stop(ctx context.Context) error {
	if m.worker == nil {
		return nil
	}
	if err := m.worker.Stop(ctx); err != nil {
		return err
	}
	log.Println("[reminder] Module stopped")
	return nil
}

// Health reports whether the worker is running.
func (m *ReminderModule) Health(_ context.Context) mono.HealthStatus {
	if m.worker == nil {
		return mono.HealthStatus{Healthy: false, Message: "worker not started"}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"interval":  m.config.Interval.String(),
			"lead":      m.config.Lead.String(),
			"announced": m.worker.Pending(),
		},
	}
}

func (m *ReminderModule) publish(event events.TaskDueSoonEvent) error {
	if m.eventBus == nil {
		return fmt.Errorf("event bus not set")
	}
	return events.TaskDueSoonV1.Publish(m.eventBus, event, nil)
}
