package client

import (
	"maps"
	"slices"
	"time"

	domain "github.com/example/todo-app/domain/task"
)

// State is the client-side view of a user's tasks. Values are never modified
// in place: Reduce returns a new State sharing nothing mutable with its input.
type State struct {
	Tasks    []domain.Task
	Filter   domain.Filter
	Sort     domain.Sort
	Selected map[string]bool
}

// Visible returns the tasks the current filter and sort produce.
func (s State) Visible(now time.Time) []domain.Task {
	return domain.SortTasks(domain.FilterTasks(s.Tasks, s.Filter, now), s.Sort)
}

// Stats aggregates the whole collection, independent of the filter.
func (s State) Stats(now time.Time) domain.Statistics {
	return domain.Aggregate(s.Tasks, now)
}

// SelectedIDs returns the selected task ids in collection order.
func (s State) SelectedIDs() []string {
	ids := make([]string, 0, len(s.Selected))
	for _, t := range s.Tasks {
		if s.Selected[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Action is a state transition. The set of actions is closed.
type Action interface {
	action()
}

// TasksLoaded replaces the collection, dropping selections of vanished tasks.
type TasksLoaded struct{ Tasks []domain.Task }

// TaskUpserted adds a task or replaces the one with the same id.
type TaskUpserted struct{ Task domain.Task }

// TaskRemoved drops one task.
type TaskRemoved struct{ ID string }

// TasksCompleted marks tasks completed at At.
type TasksCompleted struct {
	IDs []string
	At  time.Time
}

// TasksRemoved drops several tasks.
type TasksRemoved struct{ IDs []string }

// FilterChanged sets the filter.
type FilterChanged struct{ Filter domain.Filter }

// SortChanged sets the sort.
type SortChanged struct{ Sort domain.Sort }

// SelectionToggled flips the selection of one task.
type SelectionToggled struct{ ID string }

// SelectionCleared empties the selection.
type SelectionCleared struct{}

// AllVisibleSelected selects every task visible at Now.
type AllVisibleSelected struct{ Now time.Time }

func (TasksLoaded) action()        {}
func (TaskUpserted) action()       {}
func (TaskRemoved) action()        {}
func (TasksCompleted) action()     {}
func (TasksRemoved) action()       {}
func (FilterChanged) action()      {}
func (SortChanged) action()        {}
func (SelectionToggled) action()   {}
func (SelectionCleared) action()   {}
func (AllVisibleSelected) action() {}

// Reduce applies a to s and returns the resulting state.
func Reduce(s State, a Action) State {
	next := s.clone()

	switch a := a.(type) {
	case TasksLoaded:
		next.Tasks = cloneTasks(a.Tasks)
		next.Selected = keepExisting(next.Selected, next.Tasks)
	case TaskUpserted:
		t := cloneTask(a.Task)
		if i := indexOf(next.Tasks, t.ID); i >= 0 {
			next.Tasks[i] = t
		} else {
			next.Tasks = append(next.Tasks, t)
		}
	case TaskRemoved:
		next.Tasks = removeIDs(next.Tasks, []string{a.ID})
		delete(next.Selected, a.ID)
	case TasksCompleted:
		for _, id := range a.IDs {
			if i := indexOf(next.Tasks, id); i >= 0 {
				next.Tasks[i].SetStatus(domain.StatusCompleted, a.At)
				next.Tasks[i].UpdatedAt = a.At
			}
		}
	case TasksRemoved:
		next.Tasks = removeIDs(next.Tasks, a.IDs)
		for _, id := range a.IDs {
			delete(next.Selected, id)
		}
	case FilterChanged:
		next.Filter = cloneFilter(a.Filter.Normalize())
	case SortChanged:
		next.Sort = a.Sort
	case SelectionToggled:
		if next.Selected[a.ID] {
			delete(next.Selected, a.ID)
		} else if indexOf(next.Tasks, a.ID) >= 0 {
			next.Selected[a.ID] = true
		}
	case SelectionCleared:
		next.Selected = make(map[string]bool)
	case AllVisibleSelected:
		for _, t := range next.Visible(a.Now) {
			next.Selected[t.ID] = true
		}
	}
	return next
}

// clone returns a deep copy of s with a non-nil selection.
func (s State) clone() State {
	out := State{
		Tasks:    cloneTasks(s.Tasks),
		Filter:   cloneFilter(s.Filter),
		Sort:     s.Sort,
		Selected: maps.Clone(s.Selected),
	}
	if out.Selected == nil {
		out.Selected = make(map[string]bool)
	}
	return out
}

func indexOf(tasks []domain.Task, id string) int {
	return slices.IndexFunc(tasks, func(t domain.Task) bool { return t.ID == id })
}

func removeIDs(tasks []domain.Task, ids []string) []domain.Task {
	return slices.DeleteFunc(tasks, func(t domain.Task) bool { return slices.Contains(ids, t.ID) })
}

func keepExisting(selected map[string]bool, tasks []domain.Task) map[string]bool {
	out := make(map[string]bool, len(selected))
	for _, t := range tasks {
		if selected[t.ID] {
			out[t.ID] = true
		}
	}
	return out
}

func cloneTasks(tasks []domain.Task) []domain.Task {
	if tasks == nil {
		return nil
	}
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = cloneTask(t)
	}
	return out
}

// cloneTask copies the pointer and slice fields so the copy can be changed freely.
func cloneTask(t domain.Task) domain.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		t.CompletedAt = &completed
	}
	if t.CategoryID != nil {
		id := *t.CategoryID
		t.CategoryID = &id
	}
	t.Tags = slices.Clone(t.Tags)
	return t
}

func cloneFilter(f domain.Filter) domain.Filter {
	f.Tags = slices.Clone(f.Tags)
	return f
}
