package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StatusFilter selects tasks by status. Deleted tasks can never be selected.
type StatusFilter string

const (
	StatusFilterAll       StatusFilter = "all"
	StatusFilterPending   StatusFilter = "pending"
	StatusFilterCompleted StatusFilter = "completed"
)

// PriorityFilter selects tasks by priority.
type PriorityFilter string

const (
	PriorityFilterAll    PriorityFilter = "all"
	PriorityFilterLow    PriorityFilter = "low"
	PriorityFilterMedium PriorityFilter = "medium"
	PriorityFilterHigh   PriorityFilter = "high"
)

// DueBucket is a named window a due date is classified into relative to now.
type DueBucket string

const (
	DueAll      DueBucket = "all"
	DueToday    DueBucket = "today"
	DueTomorrow DueBucket = "tomorrow"
	// DueWeek matches every due date up to seven days ahead, overdue ones included.
	DueWeek    DueBucket = "week"
	DueOverdue DueBucket = "overdue"
)

// Filter describes which tasks a list view shows. Every field is optional
// and unknown values behave as if the field were absent.
type Filter struct {
	Status     StatusFilter   `json:"status,omitempty"`
	Priority   PriorityFilter `json:"priority,omitempty"`
	CategoryID string         `json:"category_id,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	DueDate    DueBucket      `json:"due_date,omitempty"`
	Search     string         `json:"search,omitempty"`
}

// ParseStatusFilter maps s to a status filter, falling back to all.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case StatusFilterPending:
		return StatusFilterPending
	case StatusFilterCompleted:
		return StatusFilterCompleted
	}
	return StatusFilterAll
}

// ParsePriorityFilter maps s to a priority filter, falling back to all.
func ParsePriorityFilter(s string) PriorityFilter {
	switch PriorityFilter(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityFilterLow:
		return PriorityFilterLow
	case PriorityFilterMedium:
		return PriorityFilterMedium
	case PriorityFilterHigh:
		return PriorityFilterHigh
	}
	return PriorityFilterAll
}

// ParseDueBucket maps s to a due-date bucket, falling back to all.
func ParseDueBucket(s string) DueBucket {
	switch DueBucket(strings.ToLower(strings.TrimSpace(s))) {
	case DueToday:
		return DueToday
	case DueTomorrow:
		return DueTomorrow
	case DueWeek:
		return DueWeek
	case DueOverdue:
		return DueOverdue
	}
	return DueAll
}

// ParseTags splits a comma-separated list of tag names, dropping blanks and duplicates.
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return cleanTags(strings.Split(s, ","))
}

func cleanTags(names []string) []string {
	seen := make(map[string]bool, len(names))
	tags := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// ParseFilter builds a filter from query values keyed status, priority,
// category_id, tags (comma-separated), due_date and search.
func ParseFilter(values map[string]string) Filter {
	return Filter{
		Status:     StatusFilter(values["status"]),
		Priority:   PriorityFilter(values["priority"]),
		CategoryID: values["category_id"],
		Tags:       ParseTags(values["tags"]),
		DueDate:    DueBucket(values["due_date"]),
		Search:     values["search"],
	}.Normalize()
}

// Normalize returns a copy of f with unknown or malformed values replaced
// by their "no filter" equivalents.
func (f Filter) Normalize() Filter {
	out := Filter{
		Status:   ParseStatusFilter(string(f.Status)),
		Priority: ParsePriorityFilter(string(f.Priority)),
		Tags:     cleanTags(f.Tags),
		DueDate:  ParseDueBucket(string(f.DueDate)),
		Search:   strings.TrimSpace(f.Search),
	}
	if id := strings.TrimSpace(f.CategoryID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			out.CategoryID = id
		}
	}
	return out
}

// Predicate builds the inclusion test for f evaluated against now.
// Calendar-day buckets use now's location.
func (f Filter) Predicate(now time.Time) func(Task) bool {
	f = f.Normalize()
	search := strings.ToLower(f.Search)
	loc := now.Location()
	tomorrow := now.AddDate(0, 0, 1)
	weekAhead := now.AddDate(0, 0, 7)

	return func(t Task) bool {
		if t.Status == StatusDeleted {
			return false
		}
		if f.Status != StatusFilterAll && string(t.Status) != string(f.Status) {
			return false
		}
		if f.Priority != PriorityFilterAll && string(t.Priority) != string(f.Priority) {
			return false
		}
		if f.CategoryID != "" && (t.CategoryID == nil || *t.CategoryID != f.CategoryID) {
			return false
		}
		if len(f.Tags) > 0 && !hasAnyTag(t, f.Tags) {
			return false
		}
		if f.DueDate != DueAll {
			if t.DueDate == nil {
				return false
			}
			due := *t.DueDate
			switch f.DueDate {
			case DueToday:
				if !sameDay(due, now, loc) {
					return false
				}
			case DueTomorrow:
				if !sameDay(due, tomorrow, loc) {
					return false
				}
			case DueWeek:
				if due.After(weekAhead) {
					return false
				}
			case DueOverdue:
				if !due.Before(now) {
					return false
				}
			}
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			return false
		}
		return true
	}
}

// Match reports whether t passes f at instant now.
func (f Filter) Match(t Task, now time.Time) bool {
	return f.Predicate(now)(t)
}

// FilterTasks returns the tasks passing f, preserving their relative order.
// The input slice is not modified.
func FilterTasks(tasks []Task, f Filter, now time.Time) []Task {
	keep := f.Predicate(now)
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func hasAnyTag(t Task, names []string) bool {
	for _, name := range names {
		if t.HasTag(name) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
