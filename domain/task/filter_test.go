package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 12, 15, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func strPtr(s string) *string { return &s }

func newTask(id string, status Status) Task {
	return Task{
		ID:        id,
		Title:     "task " + id,
		Status:    status,
		Priority:  PriorityMedium,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func ids(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilter_DeletedAlwaysExcluded(t *testing.T) {
	deleted := newTask("d", StatusDeleted)
	deleted.DueDate = at(-time.Hour)
	deleted.Tags = []Tag{{Name: "work"}}

	filters := []Filter{
		{},
		{Status: StatusFilterAll},
		{Status: "deleted"},
		{Status: "bogus"},
		{DueDate: DueOverdue},
		{Tags: []string{"work"}},
		{Search: "task"},
	}
	for _, f := range filters {
		assert.False(t, f.Match(deleted, testNow), "filter %+v matched a deleted task", f)
	}
}

func TestFilter_Status(t *testing.T) {
	var tasks []Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, newTask(string(rune('a'+i)), StatusPending))
	}
	for i := 0; i < 3; i++ {
		tasks = append(tasks, newTask(string(rune('x'+i)), StatusCompleted))
	}

	got := FilterTasks(tasks, Filter{Status: StatusFilterCompleted}, testNow)
	assert.Equal(t, []string{"x", "y", "z"}, ids(got))

	got = FilterTasks(tasks, Filter{Status: StatusFilterPending}, testNow)
	assert.Len(t, got, 5)

	got = FilterTasks(tasks, Filter{}, testNow)
	assert.Len(t, got, 8)
}

func TestFilter_Priority(t *testing.T) {
	low := newTask("low", StatusPending)
	low.Priority = PriorityLow
	high := newTask("high", StatusPending)
	high.Priority = PriorityHigh

	got := FilterTasks([]Task{low, high}, Filter{Priority: PriorityFilterHigh}, testNow)
	assert.Equal(t, []string{"high"}, ids(got))

	got = FilterTasks([]Task{low, high}, Filter{Priority: "urgent"}, testNow)
	assert.Equal(t, []string{"low", "high"}, ids(got), "unknown priority fails open")
}

func TestFilter_Category(t *testing.T) {
	const categoryID = "6f1c1f0e-8c39-4a57-9d55-3b0c2a4a1e11"
	inCategory := newTask("in", StatusPending)
	inCategory.CategoryID = strPtr(categoryID)
	other := newTask("other", StatusPending)
	other.CategoryID = strPtr("0b9e2f35-0b8f-4b51-8f2e-4d3c6e1b2a90")
	none := newTask("none", StatusPending)
	tasks := []Task{inCategory, other, none}

	got := FilterTasks(tasks, Filter{CategoryID: categoryID}, testNow)
	assert.Equal(t, []string{"in"}, ids(got))

	got = FilterTasks(tasks, Filter{CategoryID: "not-a-uuid"}, testNow)
	assert.Len(t, got, 3, "malformed category id fails open")
}

func TestFilter_TagsInclusiveOr(t *testing.T) {
	workUrgent := newTask("work-urgent", StatusPending)
	workUrgent.Tags = []Tag{{Name: "work"}, {Name: "urgent"}}
	personal := newTask("personal", StatusPending)
	personal.Tags = []Tag{{Name: "personal"}}
	untagged := newTask("untagged", StatusPending)
	tasks := []Task{workUrgent, personal, untagged}

	got := FilterTasks(tasks, Filter{Tags: []string{"work"}}, testNow)
	assert.Equal(t, []string{"work-urgent"}, ids(got))

	got = FilterTasks(tasks, Filter{Tags: []string{"personal", "urgent"}}, testNow)
	assert.Equal(t, []string{"work-urgent", "personal"}, ids(got))
}

func TestFilter_DueBuckets(t *testing.T) {
	yesterday := newTask("yesterday", StatusPending)
	yesterday.DueDate = at(-24 * time.Hour)
	earlierToday := newTask("earlier-today", StatusPending)
	earlierToday.DueDate = at(-2 * time.Hour)
	laterToday := newTask("later-today", StatusPending)
	laterToday.DueDate = at(3 * time.Hour)
	tomorrow := newTask("tomorrow", StatusPending)
	tomorrow.DueDate = at(20 * time.Hour)
	sixDays := newTask("six-days", StatusPending)
	sixDays.DueDate = at(6 * 24 * time.Hour)
	tenDays := newTask("ten-days", StatusPending)
	tenDays.DueDate = at(10 * 24 * time.Hour)
	noDue := newTask("no-due", StatusPending)

	tasks := []Task{yesterday, earlierToday, laterToday, tomorrow, sixDays, tenDays, noDue}

	tests := []struct {
		name   string
		bucket DueBucket
		want   []string
	}{
		{"all", DueAll, []string{"yesterday", "earlier-today", "later-today", "tomorrow", "six-days", "ten-days", "no-due"}},
		{"today", DueToday, []string{"earlier-today", "later-today"}},
		{"tomorrow", DueTomorrow, []string{"tomorrow"}},
		// week keeps overdue tasks: every due date up to now+7d passes.
		{"week includes overdue", DueWeek, []string{"yesterday", "earlier-today", "later-today", "tomorrow", "six-days"}},
		{"overdue", DueOverdue, []string{"yesterday", "earlier-today"}},
		{"unknown bucket fails open", "next-month", []string{"yesterday", "earlier-today", "later-today", "tomorrow", "six-days", "ten-days", "no-due"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTasks(tasks, Filter{DueDate: tt.bucket}, testNow)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_CalendarDayUsesNowLocation(t *testing.T) {
	// 23:30 UTC on June 12 is already June 13 in Tokyo.
	tokyo := time.FixedZone("JST", 9*60*60)
	due := time.Date(2024, time.June, 12, 23, 30, 0, 0, time.UTC)
	task := newTask("late", StatusPending)
	task.DueDate = &due

	nowUTC := time.Date(2024, time.June, 12, 10, 0, 0, 0, time.UTC)
	assert.True(t, Filter{DueDate: DueToday}.Match(task, nowUTC))
	assert.False(t, Filter{DueDate: DueToday}.Match(task, nowUTC.In(tokyo)))
	assert.True(t, Filter{DueDate: DueTomorrow}.Match(task, nowUTC.In(tokyo)))
}

func TestFilter_Search(t *testing.T) {
	byTitle := newTask("title", StatusPending)
	byTitle.Title = "Buy GROCERIES"
	byDescription := newTask("description", StatusPending)
	byDescription.Title = "Errands"
	byDescription.Description = "groceries and post office"
	neither := newTask("neither", StatusPending)
	neither.Title = "Gym"

	tasks := []Task{byTitle, byDescription, neither}

	got := FilterTasks(tasks, Filter{Search: "Groceries"}, testNow)
	assert.Equal(t, []string{"title", "description"}, ids(got))

	got = FilterTasks(tasks, Filter{Search: "   "}, testNow)
	assert.Len(t, got, 3, "blank search disables the filter")
}

func TestFilter_FieldsCombineWithAnd(t *testing.T) {
	match := newTask("match", StatusPending)
	match.Priority = PriorityHigh
	match.Tags = []Tag{{Name: "work"}}
	match.Title = "Quarterly report"

	wrongPriority := match
	wrongPriority.ID = "wrong-priority"
	wrongPriority.Priority = PriorityLow

	wrongTag := match
	wrongTag.ID = "wrong-tag"
	wrongTag.Tags = []Tag{{Name: "home"}}

	f := Filter{Status: StatusFilterPending, Priority: PriorityFilterHigh, Tags: []string{"work"}, Search: "report"}
	got := FilterTasks([]Task{match, wrongPriority, wrongTag}, f, testNow)
	assert.Equal(t, []string{"match"}, ids(got))
}

func TestFilterTasks_IdempotentAndNonMutating(t *testing.T) {
	a := newTask("a", StatusPending)
	b := newTask("b", StatusCompleted)
	c := newTask("c", StatusDeleted)
	input := []Task{a, b, c}
	snapshot := append([]Task(nil), input...)

	f := Filter{Status: StatusFilterAll}
	first := FilterTasks(input, f, testNow)
	second := FilterTasks(input, f, testNow)

	require.Equal(t, first, second)
	assert.Equal(t, snapshot, input)
	assert.Equal(t, []string{"a", "b"}, ids(first))
}

func TestParseTags(t *testing.T) {
	assert.Nil(t, ParseTags(""))
	assert.Nil(t, ParseTags(" , ,"))
	assert.Equal(t, []string{"work", "home"}, ParseTags("work, home,work,"))
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{
		Status:     "COMPLETED",
		Priority:   "nope",
		CategoryID: "123",
		Tags:       []string{" a ", "", "a"},
		DueDate:    "Week",
		Search:     "  x ",
	}.Normalize()

	assert.Equal(t, Filter{
		Status:   StatusFilterCompleted,
		Priority: PriorityFilterAll,
		Tags:     []string{"a"},
		DueDate:  DueWeek,
		Search:   "x",
	}, f)
}

func TestParseFilter(t *testing.T) {
	categoryID := "8a7d2f9e-4c1b-4e55-9a0f-3b2c1d0e9f8a"

	f := ParseFilter(map[string]string{
		"status":      "Completed",
		"priority":    "urgent",
		"category_id": categoryID,
		"tags":        "work, home,,work",
		"due_date":    "week",
		"search":      "  report ",
	})

	assert.Equal(t, StatusFilterCompleted, f.Status)
	assert.Equal(t, PriorityFilterAll, f.Priority)
	assert.Equal(t, categoryID, f.CategoryID)
	assert.Equal(t, []string{"work", "home"}, f.Tags)
	assert.Equal(t, DueWeek, f.DueDate)
	assert.Equal(t, "report", f.Search)

	empty := ParseFilter(map[string]string{"category_id": "not-a-uuid"})
	assert.Equal(t, StatusFilterAll, empty.Status)
	assert.Empty(t, empty.CategoryID)
	assert.Nil(t, empty.Tags)
}
