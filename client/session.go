package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/modules/task"
)

// Session combines a Client with the client-side task state. Dispatches are
// applied one at a time.
type Session struct {
	client *Client
	now    func() time.Time

	mu    sync.Mutex
	state State
}

// NewSession creates a session over client with an empty state.
func NewSession(client *Client) *Session {
	return &Session{
		client: client,
		now:    time.Now,
		state:  State{Selected: map[string]bool{}},
	}
}

// Snapshot returns a copy of the current state. Callers own it: changing it
// does not affect the session, and later dispatches do not change it.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies a to the current state and returns a copy of the result.
func (s *Session) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state.clone()
}

// Sync loads every task of the user, page by page, into the state.
func (s *Session) Sync(ctx context.Context) (State, error) {
	var all []domain.Task
	for page := 0; ; page++ {
		resp, err := s.client.ListTasks(ctx, ListQuery{Page: page, Size: task.MaxPageSize})
		if err != nil {
			return State{}, err
		}
		for _, t := range resp.Tasks {
			all = append(all, fromResponse(t))
		}
		if page+1 >= resp.TotalPages {
			break
		}
	}
	return s.Dispatch(TasksLoaded{Tasks: all}), nil
}

// CompleteSelected completes the selected tasks on the server and in the state.
func (s *Session) CompleteSelected(ctx context.Context) (State, error) {
	ids := s.Snapshot().SelectedIDs()
	if len(ids) == 0 {
		return s.Snapshot(), nil
	}
	if _, err := s.client.BulkTasks(ctx, task.BulkRequest{Operation: task.BulkComplete, TaskIDs: ids}); err != nil {
		return State{}, fmt.Errorf("failed to complete tasks: %w", err)
	}
	s.Dispatch(TasksCompleted{IDs: ids, At: s.now()})
	return s.Dispatch(SelectionCleared{}), nil
}

// DeleteSelected deletes the selected tasks on the server and in the state.
func (s *Session) DeleteSelected(ctx context.Context) (State, error) {
	ids := s.Snapshot().SelectedIDs()
	if len(ids) == 0 {
		return s.Snapshot(), nil
	}
	if _, err := s.client.BulkTasks(ctx, task.BulkRequest{Operation: task.BulkDelete, TaskIDs: ids}); err != nil {
		return State{}, fmt.Errorf("failed to delete tasks: %w", err)
	}
	return s.Dispatch(TasksRemoved{IDs: ids}), nil
}

func fromResponse(r task.TaskResponse) domain.Task {
	t := domain.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.Status(r.Status),
		Priority:    domain.Priority(r.Priority),
		DueDate:     r.DueDate,
		CompletedAt: r.CompletedAt,
		CategoryID:  r.CategoryID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	for _, tag := range r.Tags {
		t.Tags = append(t.Tags, domain.Tag{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}
	return t
}
