package task

import (
	"time"

	domain "github.com/example/todo-app/domain/task"
)

// Pagination bounds for list-tasks.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Bulk operations.
const (
	BulkDelete         = "DELETE"
	BulkComplete       = "COMPLETE"
	BulkMoveToCategory = "MOVE_TO_CATEGORY"
)

// TaskResponse is the wire view of a task.
type TaskResponse struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	Priority    string        `json:"priority"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CategoryID  *string       `json:"category_id,omitempty"`
	Tags        []TagResponse `json:"tags"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CreateTaskRequest creates a task. Tags are referenced by name and created on demand.
type CreateTaskRequest struct {
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CategoryID  *string    `json:"category_id,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// TaskRequest addresses a single task of a user.
type TaskRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

// UpdateTaskRequest is a partial update; nil fields are left unchanged.
type UpdateTaskRequest struct {
	UserID        string     `json:"user_id"`
	TaskID        string     `json:"task_id"`
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Priority      *string    `json:"priority,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	ClearDueDate  bool       `json:"clear_due_date,omitempty"`
	CategoryID    *string    `json:"category_id,omitempty"`
	ClearCategory bool       `json:"clear_category,omitempty"`
	Tags          *[]string  `json:"tags,omitempty"`
}

// UpdateStatusRequest moves a task between pending and completed.
type UpdateStatusRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// DeleteTaskResponse acknowledges a deletion.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// ListTasksRequest selects one page of a user's filtered, sorted tasks.
type ListTasksRequest struct {
	UserID   string        `json:"user_id"`
	Filter   domain.Filter `json:"filter"`
	SortBy   string        `json:"sort_by,omitempty"`
	SortDir  string        `json:"sort_dir,omitempty"`
	Page     int           `json:"page"`
	Size     int           `json:"size"`
	TimeZone string        `json:"time_zone,omitempty"`
}

// ListTasksResponse is a page of tasks plus statistics over the whole collection.
type ListTasksResponse struct {
	Tasks      []TaskResponse    `json:"tasks"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
	TotalPages int               `json:"total_pages"`
	Counts     domain.Statistics `json:"counts"`
}

// BulkRequest applies one operation to several tasks.
type BulkRequest struct {
	UserID     string   `json:"user_id"`
	Operation  string   `json:"operation"`
	TaskIDs    []string `json:"task_ids"`
	CategoryID string   `json:"category_id,omitempty"`
}

// BulkResponse reports how many of the requested tasks were changed.
type BulkResponse struct {
	Operation string `json:"operation"`
	Affected  int    `json:"affected"`
}

// ExportRequest asks for a user's tasks in a portable document.
type ExportRequest struct {
	UserID string `json:"user_id"`
	Format string `json:"format,omitempty"`
}

// ExportDocument is the JSON export format; it is also accepted by import-tasks.
type ExportDocument struct {
	Version    int                `json:"version"`
	ExportedAt time.Time          `json:"exported_at"`
	Tasks      []ExportedTask     `json:"tasks"`
	Categories []CategoryResponse `json:"categories"`
	Tags       []TagResponse      `json:"tags"`
}

// ExportedTask is a task with its category referenced by name.
type ExportedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ImportRequest imports tasks from an export document.
type ImportRequest struct {
	UserID string         `json:"user_id"`
	Tasks  []ExportedTask `json:"tasks"`
}

// ImportResponse reports the outcome per task.
type ImportResponse struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// CategoryResponse is the wire view of a category.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	TaskCount   int64     `json:"task_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryRequest creates or updates a category. Empty fields keep their value on update.
type CategoryRequest struct {
	UserID      string  `json:"user_id"`
	CategoryID  string  `json:"category_id,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Color       string  `json:"color,omitempty"`
}

// OwnedRequest addresses one of a user's resources.
type OwnedRequest struct {
	UserID string `json:"user_id"`
	ID     string `json:"id"`
}

// ListRequest addresses a user's collection.
type ListRequest struct {
	UserID string `json:"user_id"`
}

// CategoryListResponse lists categories.
type CategoryListResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

// TagResponse is the wire view of a tag.
type TagResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	TaskCount int64  `json:"task_count,omitempty"`
}

// TagRequest creates or updates a tag.
type TagRequest struct {
	UserID string `json:"user_id"`
	TagID  string `json:"tag_id,omitempty"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
}

// TagListResponse lists tags.
type TagListResponse struct {
	Tags []TagResponse `json:"tags"`
}

// DashboardRequest addresses a user's dashboard, evaluated in their time zone.
type DashboardRequest struct {
	UserID   string `json:"user_id"`
	TimeZone string `json:"time_zone,omitempty"`
	View     string `json:"view,omitempty"`
}

// TaskListResponse is an unpaged list of tasks.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// ActivityResponse summarizes recent activity.
type ActivityResponse struct {
	RecentTasks       []TaskResponse `json:"recent_tasks"`
	CompletedThisWeek int            `json:"completed_this_week"`
	CreatedThisWeek   int            `json:"created_this_week"`
}

// DueSoonRequest selects pending tasks of all users due in (From, To].
type DueSoonRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// DueSoonTask is a reminder candidate.
type DueSoonTask struct {
	TaskID  string    `json:"task_id"`
	UserID  string    `json:"user_id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

// DueSoonResponse lists reminder candidates.
type DueSoonResponse struct {
	Tasks []DueSoonTask `json:"tasks"`
}

// HealthRequest is an empty request.
type HealthRequest struct{}

// HealthResponse reports database connectivity.
type HealthResponse struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message"`
	Driver  string `json:"driver"`
}

func toTaskResponse(t *domain.Task) TaskResponse {
	tags := make([]TagResponse, 0, len(t.Tags))
	for _, tag := range t.Tags {
		tags = append(tags, TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		CategoryID:  t.CategoryID,
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskResponses(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskResponse(&tasks[i]))
	}
	return out
}

func toCategoryResponse(c *domain.Category, taskCount int64) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		TaskCount:   taskCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
