package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_Scenario(t *testing.T) {
	overdue := newTask("overdue", StatusPending)
	overdue.DueDate = at(-24 * time.Hour)
	noDue := newTask("no-due", StatusPending)
	done := newTask("done", StatusCompleted)
	done.DueDate = at(time.Hour)

	got := Aggregate([]Task{overdue, noDue, done}, testNow)

	assert.Equal(t, Statistics{
		TotalTasks:     3,
		CompletedTasks: 1,
		PendingTasks:   2,
		OverdueTasks:   1,
		TodayTasks:     0,
		UpcomingTasks:  0,
		CompletionRate: 33,
	}, got)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, Statistics{}, Aggregate(nil, testNow))
}

func TestAggregate_Buckets(t *testing.T) {
	earlierToday := newTask("earlier-today", StatusPending)
	earlierToday.DueDate = at(-time.Hour)
	laterToday := newTask("later-today", StatusPending)
	laterToday.DueDate = at(2 * time.Hour)
	inSevenDays := newTask("seven-days", StatusPending)
	inSevenDays.DueDate = at(7 * 24 * time.Hour)
	inEightDays := newTask("eight-days", StatusPending)
	inEightDays.DueDate = at(8 * 24 * time.Hour)
	completedOverdue := newTask("completed-overdue", StatusCompleted)
	completedOverdue.DueDate = at(-48 * time.Hour)

	got := Aggregate([]Task{earlierToday, laterToday, inSevenDays, inEightDays, completedOverdue}, testNow)

	assert.Equal(t, 5, got.TotalTasks)
	assert.Equal(t, 4, got.PendingTasks)
	assert.Equal(t, 1, got.CompletedTasks)
	assert.Equal(t, 1, got.OverdueTasks, "only pending tasks count as overdue")
	assert.Equal(t, 2, got.TodayTasks)
	assert.Equal(t, 2, got.UpcomingTasks, "later today and exactly seven days ahead")
	assert.Equal(t, 20, got.CompletionRate)
}

func TestAggregate_DeletedCountOnlyInTotal(t *testing.T) {
	tasks := []Task{
		newTask("p", StatusPending),
		newTask("c", StatusCompleted),
		newTask("d", StatusDeleted),
	}
	got := Aggregate(tasks, testNow)
	assert.Equal(t, 3, got.TotalTasks)
	assert.LessOrEqual(t, got.CompletedTasks+got.PendingTasks, got.TotalTasks)
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{5, 5, 100},
	}
	for _, tt := range tests {
		got := CompletionRate(tt.completed, tt.total)
		assert.Equal(t, tt.want, got, "CompletionRate(%d, %d)", tt.completed, tt.total)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}
}

func TestDueView_InView(t *testing.T) {
	overdue := newTask("overdue", StatusPending)
	overdue.DueDate = at(-2 * time.Hour)
	upcoming := newTask("upcoming", StatusPending)
	upcoming.DueDate = at(3 * 24 * time.Hour)
	completed := newTask("completed", StatusCompleted)
	completed.DueDate = at(-2 * time.Hour)

	assert.True(t, ViewOverdue.InView(overdue, testNow))
	assert.True(t, ViewToday.InView(overdue, testNow))
	assert.False(t, ViewUpcoming.InView(overdue, testNow))
	assert.True(t, ViewUpcoming.InView(upcoming, testNow))
	assert.False(t, ViewOverdue.InView(completed, testNow))
	assert.False(t, DueView("later").InView(upcoming, testNow))
}
