package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSortField(t *testing.T) {
	tests := []struct {
		in   string
		want SortField
	}{
		{"createdAt", SortByCreatedAt},
		{"created_at", SortByCreatedAt},
		{"updatedAt", SortByUpdatedAt},
		{"dueDate", SortByDueDate},
		{"due_date", SortByDueDate},
		{"PRIORITY", SortByPriority},
		{"title", SortByTitle},
		{"color", SortUnsorted},
		{"", SortUnsorted},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSortField(tt.in))
		})
	}
}

func TestSortTasks_PriorityDesc(t *testing.T) {
	low := newTask("low", StatusPending)
	low.Priority = PriorityLow
	low.Title = "A"
	medium := newTask("medium", StatusPending)
	medium.Priority = PriorityMedium
	medium.Title = "B"
	high := newTask("high", StatusPending)
	high.Priority = PriorityHigh
	high.Title = "Z"
	high2 := newTask("high2", StatusPending)
	high2.Priority = PriorityHigh
	high2.Title = "C"

	got := SortTasks([]Task{low, high, medium, high2}, Sort{Field: SortByPriority, Direction: Desc})
	assert.Equal(t, []string{"high", "high2", "medium", "low"}, ids(got))

	got = SortTasks([]Task{low, high, medium, high2}, Sort{Field: SortByPriority, Direction: Asc})
	assert.Equal(t, []string{"low", "medium", "high", "high2"}, ids(got))
}

func TestSortTasks_TitleCaseInsensitive(t *testing.T) {
	banana := newTask("banana", StatusPending)
	banana.Title = "Banana"
	apple := newTask("apple", StatusPending)
	apple.Title = "apple"
	cherry := newTask("cherry", StatusPending)
	cherry.Title = "cherry"

	got := SortTasks([]Task{banana, cherry, apple}, ParseSort("title", "asc"))
	assert.Equal(t, []string{"apple", "banana", "cherry"}, ids(got))

	got = SortTasks([]Task{banana, cherry, apple}, ParseSort("title", "desc"))
	assert.Equal(t, []string{"cherry", "banana", "apple"}, ids(got))
}

func TestSortTasks_MissingDueDateSortsFirst(t *testing.T) {
	// Tasks without a due date compare as the Unix epoch.
	soon := newTask("soon", StatusPending)
	soon.DueDate = at(time.Hour)
	later := newTask("later", StatusPending)
	later.DueDate = at(48 * time.Hour)
	none := newTask("none", StatusPending)

	got := SortTasks([]Task{later, none, soon}, Sort{Field: SortByDueDate, Direction: Asc})
	assert.Equal(t, []string{"none", "soon", "later"}, ids(got))

	got = SortTasks([]Task{later, none, soon}, Sort{Field: SortByDueDate, Direction: Desc})
	assert.Equal(t, []string{"later", "soon", "none"}, ids(got))
}

func TestSortTasks_Timestamps(t *testing.T) {
	first := newTask("first", StatusPending)
	first.CreatedAt = testNow.Add(-3 * time.Hour)
	first.UpdatedAt = testNow
	second := newTask("second", StatusPending)
	second.CreatedAt = testNow.Add(-2 * time.Hour)
	second.UpdatedAt = testNow.Add(-time.Hour)

	got := SortTasks([]Task{second, first}, Sort{Field: SortByCreatedAt, Direction: Asc})
	assert.Equal(t, []string{"first", "second"}, ids(got))

	got = SortTasks([]Task{first, second}, Sort{Field: SortByUpdatedAt, Direction: Asc})
	assert.Equal(t, []string{"second", "first"}, ids(got))
}

func TestSortTasks_StableOnTies(t *testing.T) {
	var tasks []Task
	for _, id := range []string{"a", "b", "c", "d"} {
		tasks = append(tasks, newTask(id, StatusPending))
	}

	got := SortTasks(tasks, Sort{Field: SortByCreatedAt, Direction: Asc})
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got))

	got = SortTasks(tasks, Sort{Field: SortByPriority, Direction: Desc})
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got))
}

func TestSortTasks_UnsortedKeepsOrderAndCopies(t *testing.T) {
	tasks := []Task{newTask("b", StatusPending), newTask("a", StatusPending)}
	got := SortTasks(tasks, ParseSort("bogus", "desc"))
	assert.Equal(t, []string{"b", "a"}, ids(got))

	got[0].ID = "changed"
	assert.Equal(t, "b", tasks[0].ID)
}

func TestComparator_DescIsExactReverse(t *testing.T) {
	a := newTask("a", StatusPending)
	a.Title = "alpha"
	b := newTask("b", StatusPending)
	b.Title = "beta"

	for _, field := range []SortField{SortByCreatedAt, SortByUpdatedAt, SortByDueDate, SortByPriority, SortByTitle} {
		asc := Sort{Field: field, Direction: Asc}.Comparator()
		desc := Sort{Field: field, Direction: Desc}.Comparator()
		assert.Equal(t, asc(a, b), -desc(a, b), "field %s", field)
		assert.Equal(t, asc(b, a), -desc(b, a), "field %s", field)
	}
}
