package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort is the task module's surface for other modules.
type TaskPort interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error)
	GetTask(ctx context.Context, userID, taskID string) (*TaskResponse, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error)
	UpdateTaskStatus(ctx context.Context, req *UpdateStatusRequest) (*TaskResponse, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
	ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)
	BulkTasks(ctx context.Context, req *BulkRequest) (*BulkResponse, error)
	ExportTasks(ctx context.Context, req *ExportRequest) (*ExportDocument, error)
	ImportTasks(ctx context.Context, req *ImportRequest) (*ImportResponse, error)
	CreateCategory(ctx context.Context, req *CategoryRequest) (*CategoryResponse, error)
	ListCategories(ctx context.Context, userID string) (*CategoryListResponse, error)
	UpdateCategory(ctx context.Context, req *CategoryRequest) (*CategoryResponse, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
	CreateTag(ctx context.Context, req *TagRequest) (*TagResponse, error)
	ListTags(ctx context.Context, userID string) (*TagListResponse, error)
	UpdateTag(ctx context.Context, req *TagRequest) (*TagResponse, error)
	DeleteTag(ctx context.Context, userID, tagID string) error
	GetStatistics(ctx context.Context, userID, timeZone string) (*domain.Statistics, error)
	GetDashboardTasks(ctx context.Context, req *DashboardRequest) (*TaskListResponse, error)
	GetActivity(ctx context.Context, userID string) (*ActivityResponse, error)
	DueSoonTasks(ctx context.Context, from, to time.Time) (*DueSoonResponse, error)
	DatabaseHealth(ctx context.Context) (*HealthResponse, error)
}

// TaskAdapter implements TaskPort using the service container.
type TaskAdapter struct {
	container mono.ServiceContainer
}

var _ TaskPort = (*TaskAdapter)(nil)

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &TaskAdapter{container: container}
}

// CreateTask creates a task via the create-task service.
func (a *TaskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-task",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("create-task service call failed: %w", err)
	}
	return &resp, nil
}

// GetTask retrieves one of the user's tasks.
func (a *TaskAdapter) GetTask(ctx context.Context, userID, taskID string) (*TaskResponse, error) {
	req := TaskRequest{UserID: userID, TaskID: taskID}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-task service call failed: %w", err)
	}
	return &resp, nil
}

// UpdateTask applies a partial update.
func (a *TaskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("update-task service call failed: %w", err)
	}
	return &resp, nil
}

// UpdateTaskStatus moves a task between pending and completed.
func (a *TaskAdapter) UpdateTaskStatus(ctx context.Context, req *UpdateStatusRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task-status",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("update-task-status service call failed: %w", err)
	}
	return &resp, nil
}

// DeleteTask soft-deletes a task.
func (a *TaskAdapter) DeleteTask(ctx context.Context, userID, taskID string) error {
	req := TaskRequest{UserID: userID, TaskID: taskID}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-task service call failed: %w", err)
	}
	if !resp.Deleted {
		return fmt.Errorf("delete-task: nothing deleted")
	}
	return nil
}

func (a *TaskAdapter) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tasks",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks service call failed: %w", err)
	}
	return &resp, nil
}

// BulkTasks applies one operation to several tasks.
func (a *TaskAdapter) BulkTasks(ctx context.Context, req *BulkRequest) (*BulkResponse, error) {
	var resp BulkResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"bulk-tasks",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("bulk-tasks service call failed: %w", err)
	}
	return &resp, nil
}

func (a *TaskAdapter) ExportTasks(ctx context.Context, req *ExportRequest) (*ExportDocument, error) {
	var resp ExportDocument
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"export-tasks",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("export-tasks service call failed: %w", err)
	}
	return &resp, nil
}

func (a *TaskAdapter) ImportTasks(ctx context.Context, req *ImportRequest) (*ImportResponse, error) {
	var resp ImportResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"import-tasks",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("import-tasks service call failed: %w", err)
	}
	return &resp, nil
}

func (a *TaskAdapter) CreateCategory(ctx context.Context, req *CategoryRequest) (*CategoryResponse, error) {
	var resp CategoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-category",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("create-category service call failed: %w", err)
	}
	return &resp, nil
}

func (a *TaskAdapter) ListCategories(ctx context.Context, userID string) (*CategoryListResponse, error) {
	req := ListRequest{UserID: userID}
	var resp CategoryListResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-categories",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-categories service call failed: %w", err)
	}
	return &resp, nil
}

func (a *TaskAdapter) UpdateCategory(ctx context.Context, req *CategoryRequest) (*CategoryResponse, error) {
	var resp CategoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-category",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("update-category service call failed: %w", err)
	}
	return &resp, nil
}

// DeleteCategory deletes a category and detaches its tasks.
func (a *TaskAdapter) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	req := OwnedRequest{UserID: userID, ID: categoryID}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-category",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-category service call failed: %w", err)
	}
	if !resp.Deleted {
		return fmt.Errorf("delete-category: nothing deleted")
	}
	return nil
}

func (a *TaskAdapter) CreateTag(ctx context.Context, req *TagRequest) (*TagResponse, error) {
	var resp TagResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-tag",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("create-tag service call failed: %w", err)
	}
	return &resp, nil
}

func (a *TaskAdapter) ListTags(ctx context.Context, userID string) (*TagListResponse, error) {
	req := ListRequest{UserID: userID}
	var resp TagListResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tags",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-tags service call failed: %w", err)
	}
	return &resp, nil
}

func (a *TaskAdapter) UpdateTag(ctx context.Context, req *TagRequest) (*TagResponse, error) {
	var resp TagResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-tag",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("update-tag service call failed: %w", err)
	}
	return &resp, nil
}

func (a *TaskAdapter) DeleteTag(ctx context.Context, userID, tagID string) error {
	req := OwnedRequest{UserID: userID, ID: tagID}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-tag",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-tag service call failed: %w", err)
	}
	if !resp.Deleted {
		return fmt.Errorf("delete-tag: nothing deleted")
	}
	return nil
}

// GetStatistics returns the user's dashboard counters.
func (a *TaskAdapter) GetStatistics(ctx context.Context, userID, timeZone string) (*domain.Statistics, error) {
	req := DashboardRequest{UserID: userID, TimeZone: timeZone}
	var resp domain.Statistics
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-statistics",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-statistics service call failed: %w", err)
	}
	return &resp, nil
}

// GetDashboardTasks returns the tasks of one dashboard view.
func (a *TaskAdapter) GetDashboardTasks(ctx context.Context, req *DashboardRequest) (*TaskListResponse, error) {
	var resp TaskListResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-dashboard-tasks",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-dashboard-tasks service call failed: %w", err)
	}
	return &resp, nil
}

func (a *TaskAdapter) GetActivity(ctx context.Context, userID string) (*ActivityResponse, error) {
	req := ListRequest{UserID: userID}
	var resp ActivityResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-activity",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-activity service call failed: %w", err)
	}
	return &resp, nil
}

// DueSoonTasks lists pending tasks of all users due in (from, to].
func (a *TaskAdapter) DueSoonTasks(ctx context.Context, from, to time.Time) (*DueSoonResponse, error) {
	req := DueSoonRequest{From: from, To: to}
	var resp DueSoonResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"due-soon-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("due-soon-tasks service call failed: %w", err)
	}
	return &resp, nil
}

// DatabaseHealth reports task database connectivity.
func (a *TaskAdapter) DatabaseHealth(ctx context.Context) (*HealthResponse, error) {
	req := HealthRequest{}
	var resp HealthResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"database-health",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("database-health service call failed: %w", err)
	}
	return &resp, nil
}
