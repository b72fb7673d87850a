package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/modules/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func sampleState() State {
	return State{
		Tasks: []domain.Task{
			{ID: "t1", Title: "Write report", Status: domain.StatusPending, Priority: domain.PriorityHigh,
				DueDate: ptr(now.Add(2 * time.Hour)), Tags: []domain.Tag{{Name: "work"}}},
			{ID: "t2", Title: "Buy milk", Status: domain.StatusPending, Priority: domain.PriorityLow},
			{ID: "t3", Title: "Call mom", Status: domain.StatusCompleted, Priority: domain.PriorityMedium,
				CompletedAt: ptr(now.Add(-time.Hour))},
		},
		Filter:   domain.Filter{Tags: []string{"work"}},
		Selected: map[string]bool{"t1": true},
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	actions := []Action{
		TasksLoaded{Tasks: []domain.Task{{ID: "x"}}},
		TaskUpserted{Task: domain.Task{ID: "t1", Title: "changed"}},
		TaskRemoved{ID: "t1"},
		TasksCompleted{IDs: []string{"t1", "t2"}, At: now},
		TasksRemoved{IDs: []string{"t1", "t3"}},
		FilterChanged{Filter: domain.Filter{Search: "milk"}},
		SortChanged{Sort: domain.Sort{Field: domain.SortByTitle, Direction: domain.Desc}},
		SelectionToggled{ID: "t2"},
		SelectionCleared{},
		AllVisibleSelected{Now: now},
	}

	for _, a := range actions {
		before := sampleState()
		snapshot := sampleState()

		after := Reduce(before, a)

		assert.Equal(t, snapshot, before, "%T changed its input", a)

		// Writing through the result must not reach the input either.
		if len(after.Tasks) > 0 {
			after.Tasks[0].Title = "scribbled"
			if after.Tasks[0].DueDate != nil {
				*after.Tasks[0].DueDate = time.Time{}
			}
		}
		after.Selected["scribbled"] = true
		assert.Equal(t, snapshot, before, "%T shares memory with its input", a)
	}
}

func TestReduce_Actions(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		check  func(t *testing.T, s State)
	}{
		{
			name:   "loaded drops vanished selections",
			action: TasksLoaded{Tasks: []domain.Task{{ID: "t2"}}},
			check: func(t *testing.T, s State) {
				assert.Len(t, s.Tasks, 1)
				assert.Empty(t, s.Selected)
			},
		},
		{
			name:   "upsert replaces existing task in place",
			action: TaskUpserted{Task: domain.Task{ID: "t2", Title: "Buy oat milk"}},
			check: func(t *testing.T, s State) {
				require.Len(t, s.Tasks, 3)
				assert.Equal(t, "Buy oat milk", s.Tasks[1].Title)
			},
		},
		{
			name:   "upsert appends new task",
			action: TaskUpserted{Task: domain.Task{ID: "t4"}},
			check: func(t *testing.T, s State) {
				require.Len(t, s.Tasks, 4)
				assert.Equal(t, "t4", s.Tasks[3].ID)
			},
		},
		{
			name:   "remove drops task and its selection",
			action: TaskRemoved{ID: "t1"},
			check: func(t *testing.T, s State) {
				assert.Len(t, s.Tasks, 2)
				assert.NotContains(t, s.Selected, "t1")
			},
		},
		{
			name:   "complete sets completed at once",
			action: TasksCompleted{IDs: []string{"t1", "t3", "missing"}, At: now},
			check: func(t *testing.T, s State) {
				assert.Equal(t, domain.StatusCompleted, s.Tasks[0].Status)
				require.NotNil(t, s.Tasks[0].CompletedAt)
				assert.Equal(t, now, *s.Tasks[0].CompletedAt)
				// t3 keeps its original completion time.
				assert.Equal(t, now.Add(-time.Hour), *s.Tasks[2].CompletedAt)
			},
		},
		{
			name:   "filter is normalized",
			action: FilterChanged{Filter: domain.Filter{Status: "bogus", Search: "  milk "}},
			check: func(t *testing.T, s State) {
				assert.Equal(t, domain.StatusFilterAll, s.Filter.Status)
				assert.Equal(t, "milk", s.Filter.Search)
			},
		},
		{
			name:   "toggle ignores unknown ids",
			action: SelectionToggled{ID: "missing"},
			check: func(t *testing.T, s State) {
				assert.Equal(t, map[string]bool{"t1": true}, s.Selected)
			},
		},
		{
			name:   "toggle deselects",
			action: SelectionToggled{ID: "t1"},
			check: func(t *testing.T, s State) {
				assert.Empty(t, s.Selected)
			},
		},
		{
			name:   "select all visible honors the filter",
			action: AllVisibleSelected{Now: now},
			check: func(t *testing.T, s State) {
				assert.Equal(t, []string{"t1"}, s.SelectedIDs())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Reduce(sampleState(), tt.action))
		})
	}
}

func TestState_VisibleAndStats(t *testing.T) {
	s := Reduce(sampleState(), FilterChanged{Filter: domain.Filter{Status: domain.StatusFilterPending}})
	s = Reduce(s, SortChanged{Sort: domain.Sort{Field: domain.SortByTitle, Direction: domain.Asc}})

	visible := s.Visible(now)
	require.Len(t, visible, 2)
	assert.Equal(t, "Buy milk", visible[0].Title)
	assert.Equal(t, "Write report", visible[1].Title)

	stats := s.Stats(now)
	assert.Equal(t, 3, stats.TotalTasks)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 2, stats.PendingTasks)
}

func TestReduce_ZeroState(t *testing.T) {
	s := Reduce(State{}, SelectionToggled{ID: "t1"})
	assert.NotNil(t, s.Selected)
	assert.Empty(t, s.Tasks)
}

// taskServer serves a paged task list and records bulk calls.
type taskServer struct {
	total int

	mu   sync.Mutex
	bulk []task.BulkRequest
}

func (ts *taskServer) bulkCalls() []task.BulkRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.bulk
}

func (ts *taskServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		resp := task.ListTasksResponse{Total: ts.total, Page: page, Size: size}
		resp.TotalPages = (ts.total + size - 1) / size
		for i := page * size; i < ts.total && i < (page+1)*size; i++ {
			resp.Tasks = append(resp.Tasks, task.TaskResponse{
				ID:     "task-" + strconv.Itoa(i),
				Title:  "Task " + strconv.Itoa(i),
				Status: string(domain.StatusPending),
				Tags:   []task.TagResponse{{Name: "work"}},
			})
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("/tasks/bulk", func(w http.ResponseWriter, r *http.Request) {
		var req task.BulkRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		ts.mu.Lock()
		ts.bulk = append(ts.bulk, req)
		ts.mu.Unlock()
		writeJSON(w, http.StatusOK, task.BulkResponse{Operation: req.Operation, Affected: len(req.TaskIDs)})
	})
	return mux
}

func newTestSession(t *testing.T, ts *taskServer) *Session {
	t.Helper()
	server := httptest.NewServer(ts.handler())
	t.Cleanup(server.Close)

	c := New(server.URL)
	c.Tokens().Set(Tokens{AccessToken: "token", RefreshToken: "refresh"})
	s := NewSession(c)
	s.now = func() time.Time { return now }
	return s
}

func TestSession_SyncLoadsEveryPage(t *testing.T) {
	ts := &taskServer{total: task.MaxPageSize + 5}
	s := newTestSession(t, ts)

	state, err := s.Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, state.Tasks, task.MaxPageSize+5)
	assert.Equal(t, "task-0", state.Tasks[0].ID)
	assert.Equal(t, "task-104", state.Tasks[104].ID)
	assert.True(t, state.Tasks[0].HasTag("work"))
}

func TestSession_CompleteSelected(t *testing.T) {
	ts := &taskServer{total: 3}
	s := newTestSession(t, ts)

	_, err := s.Sync(context.Background())
	require.NoError(t, err)
	s.Dispatch(SelectionToggled{ID: "task-0"})
	s.Dispatch(SelectionToggled{ID: "task-2"})

	state, err := s.CompleteSelected(context.Background())
	require.NoError(t, err)

	calls := ts.bulkCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, task.BulkComplete, calls[0].Operation)
	assert.Equal(t, []string{"task-0", "task-2"}, calls[0].TaskIDs)

	assert.Empty(t, state.Selected)
	assert.Equal(t, domain.StatusCompleted, state.Tasks[0].Status)
	assert.Equal(t, domain.StatusPending, state.Tasks[1].Status)
	assert.Equal(t, domain.StatusCompleted, state.Tasks[2].Status)
	assert.Equal(t, 2, state.Stats(now).CompletedTasks)
}

func TestSession_DeleteSelectedWithoutSelection(t *testing.T) {
	ts := &taskServer{total: 2}
	s := newTestSession(t, ts)

	_, err := s.Sync(context.Background())
	require.NoError(t, err)

	state, err := s.DeleteSelected(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ts.bulkCalls())
	assert.Len(t, state.Tasks, 2)
}

func TestSession_SnapshotIsDetached(t *testing.T) {
	ts := &taskServer{total: 2}
	s := newTestSession(t, ts)

	_, err := s.Sync(context.Background())
	require.NoError(t, err)
	dispatched := s.Dispatch(SelectionToggled{ID: "task-0"})

	snap := s.Snapshot()
	snap.Selected["task-1"] = true
	snap.Tasks[0].Title = "scribbled"
	snap.Tasks[0].Tags[0].Name = "scribbled"
	dispatched.Selected["task-1"] = true
	dispatched.Tasks = nil

	current := s.Snapshot()
	assert.Equal(t, []string{"task-0"}, current.SelectedIDs())
	require.Len(t, current.Tasks, 2)
	assert.Equal(t, "Task 0", current.Tasks[0].Title)
	assert.True(t, current.Tasks[0].HasTag("work"))
}
