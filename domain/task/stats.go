package task

import (
	"math"
	"time"
)

// Statistics summarizes a task collection at a point in time.
type Statistics struct {
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	PendingTasks   int `json:"pending_tasks"`
	OverdueTasks   int `json:"overdue_tasks"`
	TodayTasks     int `json:"today_tasks"`
	UpcomingTasks  int `json:"upcoming_tasks"`
	CompletionRate int `json:"completion_rate"`
}

// Aggregate reduces tasks into Statistics in a single pass. The collection is
// expected to be scoped to one user with deleted tasks already removed.
func Aggregate(tasks []Task, now time.Time) Statistics {
	var s Statistics
	loc := now.Location()
	weekAhead := now.AddDate(0, 0, 7)

	for _, t := range tasks {
		s.TotalTasks++
		switch t.Status {
		case StatusCompleted:
			s.CompletedTasks++
		case StatusPending:
			s.PendingTasks++
			if t.DueDate == nil {
				continue
			}
			due := *t.DueDate
			if due.Before(now) {
				s.OverdueTasks++
			}
			if sameDay(due, now, loc) {
				s.TodayTasks++
			}
			if due.After(now) && !due.After(weekAhead) {
				s.UpcomingTasks++
			}
		}
	}

	s.CompletionRate = CompletionRate(s.CompletedTasks, s.TotalTasks)
	return s
}

// CompletionRate is completed/total as a whole percentage, or 0 for an empty collection.
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// DueView selects one of the dashboard task lists.
type DueView string

const (
	ViewToday    DueView = "today"
	ViewUpcoming DueView = "upcoming"
	ViewOverdue  DueView = "overdue"
)

// InView reports whether a pending task belongs to the dashboard view v.
// Windows match the ones Aggregate counts.
func (v DueView) InView(t Task, now time.Time) bool {
	if t.Status != StatusPending || t.DueDate == nil {
		return false
	}
	due := *t.DueDate
	switch v {
	case ViewToday:
		return sameDay(due, now, now.Location())
	case ViewUpcoming:
		return due.After(now) && !due.After(now.AddDate(0, 0, 7))
	case ViewOverdue:
		return due.Before(now)
	}
	return false
}
