package task

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// SortField is the closed set of keys a task list can be ordered by.
type SortField int

const (
	// SortUnsorted keeps the input order.
	SortUnsorted SortField = iota
	SortByCreatedAt
	SortByUpdatedAt
	SortByDueDate
	SortByPriority
	SortByTitle
)

// String returns the wire name of the field.
func (f SortField) String() string {
	switch f {
	case SortByCreatedAt:
		return "createdAt"
	case SortByUpdatedAt:
		return "updatedAt"
	case SortByDueDate:
		return "dueDate"
	case SortByPriority:
		return "priority"
	case SortByTitle:
		return "title"
	}
	return ""
}

// ParseSortField accepts both camelCase and snake_case names.
// Unknown names yield SortUnsorted.
func ParseSortField(s string) SortField {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "createdat":
		return SortByCreatedAt
	case "updatedat":
		return SortByUpdatedAt
	case "duedate":
		return SortByDueDate
	case "priority":
		return SortByPriority
	case "title":
		return SortByTitle
	}
	return SortUnsorted
}

// Direction is the sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps s to a direction, defaulting to ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Sort is a field plus direction.
type Sort struct {
	Field     SortField
	Direction Direction
}

// ParseSort builds a Sort from wire values.
func ParseSort(field, direction string) Sort {
	return Sort{Field: ParseSortField(field), Direction: ParseDirection(direction)}
}

// missingDueDate stands in for tasks without a due date, so they come first in ascending order.
var missingDueDate = time.Unix(0, 0).UTC()

// Comparator returns a three-way comparison for s. Desc reverses asc exactly.
// SortUnsorted compares every pair as equal.
func (s Sort) Comparator() func(a, b Task) int {
	var compare func(a, b Task) int
	switch s.Field {
	case SortByCreatedAt:
		compare = func(a, b Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortByUpdatedAt:
		compare = func(a, b Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case SortByDueDate:
		compare = func(a, b Task) int { return dueOrEpoch(a).Compare(dueOrEpoch(b)) }
	case SortByPriority:
		compare = func(a, b Task) int { return cmp.Compare(a.Priority.Rank(), b.Priority.Rank()) }
	case SortByTitle:
		compare = func(a, b Task) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	default:
		return func(Task, Task) int { return 0 }
	}
	if s.Direction == Desc {
		return func(a, b Task) int { return compare(b, a) }
	}
	return compare
}

// SortTasks returns a stably sorted copy of tasks.
func SortTasks(tasks []Task, s Sort) []Task {
	out := slices.Clone(tasks)
	if s.Field == SortUnsorted {
		return out
	}
	slices.SortStableFunc(out, s.Comparator())
	return out
}

func dueOrEpoch(t Task) time.Time {
	if t.DueDate == nil {
		return missingDueDate
	}
	return *t.DueDate
}
