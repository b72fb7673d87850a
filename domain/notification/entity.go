package notification

import "time"

// Type identifies what a notification is about.
type Type string

const (
	TypeTaskCreated   Type = "task_created"
	TypeTaskCompleted Type = "task_completed"
	TypeTaskDeleted   Type = "task_deleted"
	TypeDueReminder   Type = "due_reminder"
)

// Notification is a message shown to a user in the notification center.
type Notification struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	UserID  string `gorm:"size:36;not null;index" json:"user_id"`
	Type    Type   `gorm:"size:32;not null" json:"type"`
	Title   string `gorm:"size:150;not null" json:"title"`
	Message string `gorm:"size:500" json:"message"`
	TaskID  string `gorm:"size:36;index" json:"task_id,omitempty"`
	// DedupeKey is set for notifications that must be stored at most once.
	DedupeKey *string   `gorm:"size:100;uniqueIndex" json:"-"`
	Read      bool      `gorm:"not null" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the Notification entity.
func (Notification) TableName() string {
	return "notifications"
}

// ReminderKey identifies the reminder for one task and due date. A task whose
// due date moves gets a new reminder.
func ReminderKey(taskID string, due time.Time) string {
	return taskID + "@" + due.UTC().Format(time.RFC3339)
}
