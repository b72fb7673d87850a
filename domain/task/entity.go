package task

import (
	"time"
)

// Field limits shared by validation and the schema.
const (
	MaxTitleLength               = 100
	MaxDescriptionLength         = 500
	MaxCategoryNameLength        = 50
	MaxCategoryDescriptionLength = 255
	MaxTagNameLength             = 30

	DefaultCategoryColor = "#3B82F6"
	DefaultTagColor      = "#6B7280"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusDeleted:
		return true
	}
	return false
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities: high=3, medium=2, low=1, unknown=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Task is a user-owned unit of work.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:36;not null;index" json:"user_id"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	Description string     `gorm:"size:500" json:"description"`
	Status      Status     `gorm:"size:16;not null;default:pending;index" json:"status"`
	Priority    Priority   `gorm:"size:16;not null;default:medium" json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CategoryID  *string    `gorm:"size:36;index" json:"category_id,omitempty"`
	Tags        []Tag      `gorm:"many2many:task_tags" json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// SetStatus moves the task to status s, keeping CompletedAt set only while completed.
func (t *Task) SetStatus(s Status, now time.Time) {
	if s == StatusCompleted {
		if t.Status != StatusCompleted || t.CompletedAt == nil {
			completedAt := now
			t.CompletedAt = &completedAt
		}
	} else {
		t.CompletedAt = nil
	}
	t.Status = s
}

// HasTag reports whether the task carries a tag with the given name.
func (t *Task) HasTag(name string) bool {
	for _, tag := range t.Tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}

// Category is a named, colored grouping of tasks.
type Category struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:idx_categories_user_name" json:"user_id"`
	Name        string    `gorm:"size:50;not null;uniqueIndex:idx_categories_user_name" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Color       string    `gorm:"size:7;not null" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for the Category entity.
func (Category) TableName() string {
	return "categories"
}

// Tag is a label that can be attached to many tasks.
type Tag struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_tags_user_name" json:"user_id"`
	Name      string    `gorm:"size:30;not null;uniqueIndex:idx_tags_user_name" json:"name"`
	Color     string    `gorm:"size:7;not null" json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the Tag entity.
func (Tag) TableName() string {
	return "tags"
}
