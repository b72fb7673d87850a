package task

import (
	"context"
	"log"
	"strings"

	"github.com/example/todo-app/database"
	domain "github.com/example/todo-app/domain/task"
	"github.com/go-monolith/mono"
)

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.CreateTask(ctx, req)
	if err != nil {
		return TaskResponse{}, err
	}
	m.publishCreated(task)
	return toTaskResponse(task), nil
}

func (m *TaskModule) getTask(ctx context.Context, req TaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.GetTask(ctx, req.UserID, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(task), nil
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.UpdateTask(ctx, req)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(task), nil
}

func (m *TaskModule) updateTaskStatus(ctx context.Context, req UpdateStatusRequest, _ *mono.Msg) (TaskResponse, error) {
	task, completed, err := m.service.UpdateStatus(ctx, req.UserID, req.TaskID, req.Status)
	if err != nil {
		return TaskResponse{}, err
	}
	if completed {
		m.publishCompleted(task)
	}
	return toTaskResponse(task), nil
}

func (m *TaskModule) deleteTask(ctx context.Context, req TaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	task, err := m.service.DeleteTask(ctx, req.UserID, req.TaskID)
	if err != nil {
		return DeleteTaskResponse{}, err
	}
	m.publishDeleted(task)
	return DeleteTaskResponse{Deleted: true}, nil
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	resp, err := m.service.ListTasks(ctx, req)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return *resp, nil
}

func (m *TaskModule) bulkTasks(ctx context.Context, req BulkRequest, _ *mono.Msg) (BulkResponse, error) {
	changed, err := m.service.Bulk(ctx, req)
	if err != nil {
		return BulkResponse{}, err
	}

	op := strings.ToUpper(strings.TrimSpace(req.Operation))
	for i := range changed {
		switch op {
		case BulkDelete:
			m.publishDeleted(&changed[i])
		case BulkComplete:
			m.publishCompleted(&changed[i])
		}
	}
	log.Printf("[task] Bulk %s applied to %d of %d tasks for user %s",
		op, len(changed), len(req.TaskIDs), req.UserID)
	return BulkResponse{Operation: op, Affected: len(changed)}, nil
}

func (m *TaskModule) exportTasks(ctx context.Context, req ExportRequest, _ *mono.Msg) (ExportDocument, error) {
	doc, err := m.service.Export(ctx, req)
	if err != nil {
		return ExportDocument{}, err
	}
	return *doc, nil
}

func (m *TaskModule) importTasks(ctx context.Context, req ImportRequest, _ *mono.Msg) (ImportResponse, error) {
	resp, err := m.service.Import(ctx, req)
	if err != nil {
		return ImportResponse{}, err
	}
	log.Printf("[task] Imported %d tasks for user %s (%d errors)", resp.Imported, req.UserID, len(resp.Errors))
	return *resp, nil
}

func (m *TaskModule) createCategory(ctx context.Context, req CategoryRequest, _ *mono.Msg) (CategoryResponse, error) {
	category, err := m.service.CreateCategory(ctx, req)
	if err != nil {
		return CategoryResponse{}, err
	}
	return toCategoryResponse(category, 0), nil
}

func (m *TaskModule) listCategories(ctx context.Context, req ListRequest, _ *mono.Msg) (CategoryListResponse, error) {
	categories, err := m.service.ListCategories(ctx, req.UserID)
	if err != nil {
		return CategoryListResponse{}, err
	}
	return CategoryListResponse{Categories: categories}, nil
}

func (m *TaskModule) updateCategory(ctx context.Context, req CategoryRequest, _ *mono.Msg) (CategoryResponse, error) {
	category, err := m.service.UpdateCategory(ctx, req)
	if err != nil {
		return CategoryResponse{}, err
	}
	return toCategoryResponse(category, 0), nil
}

func (m *TaskModule) deleteCategory(ctx context.Context, req OwnedRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.DeleteCategory(ctx, req.UserID, req.ID); err != nil {
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

func (m *TaskModule) createTag(ctx context.Context, req TagRequest, _ *mono.Msg) (TagResponse, error) {
	tag, err := m.service.CreateTag(ctx, req)
	if err != nil {
		return TagResponse{}, err
	}
	return TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color}, nil
}

func (m *TaskModule) listTags(ctx context.Context, req ListRequest, _ *mono.Msg) (TagListResponse, error) {
	tags, err := m.service.ListTags(ctx, req.UserID)
	if err != nil {
		return TagListResponse{}, err
	}
	return TagListResponse{Tags: tags}, nil
}

func (m *TaskModule) updateTag(ctx context.Context, req TagRequest, _ *mono.Msg) (TagResponse, error) {
	tag, err := m.service.UpdateTag(ctx, req)
	if err != nil {
		return TagResponse{}, err
	}
	return TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color}, nil
}

func (m *TaskModule) deleteTag(ctx context.Context, req OwnedRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.DeleteTag(ctx, req.UserID, req.ID); err != nil {
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

func (m *TaskModule) getStatistics(ctx context.Context, req DashboardRequest, _ *mono.Msg) (domain.Statistics, error) {
	return m.service.Statistics(ctx, req.UserID, req.TimeZone)
}

func (m *TaskModule) getDashboardTasks(ctx context.Context, req DashboardRequest, _ *mono.Msg) (TaskListResponse, error) {
	tasks, err := m.service.DashboardTasks(ctx, req.UserID, req.TimeZone, req.View)
	if err != nil {
		return TaskListResponse{}, err
	}
	return TaskListResponse{Tasks: toTaskResponses(tasks)}, nil
}

func (m *TaskModule) getActivity(ctx context.Context, req ListRequest, _ *mono.Msg) (ActivityResponse, error) {
	resp, err := m.service.Activity(ctx, req.UserID)
	if err != nil {
		return ActivityResponse{}, err
	}
	return *resp, nil
}

func (m *TaskModule) dueSoonTasks(ctx context.Context, req DueSoonRequest, _ *mono.Msg) (DueSoonResponse, error) {
	tasks, err := m.service.DueSoon(ctx, req.From, req.To)
	if err != nil {
		return DueSoonResponse{}, err
	}
	out := make([]DueSoonTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, DueSoonTask{
			TaskID:  t.ID,
			UserID:  t.UserID,
			Title:   t.Title,
			DueDate: *t.DueDate,
		})
	}
	return DueSoonResponse{Tasks: out}, nil
}

func (m *TaskModule) databaseHealth(_ context.Context, _ HealthRequest, _ *mono.Msg) (HealthResponse, error) {
	resp := HealthResponse{Driver: m.config.Database.Driver}
	if err := database.Ping(m.db); err != nil {
		resp.Message = err.Error()
		return resp, nil
	}
	resp.Healthy = true
	resp.Message = "database connection is healthy"
	return resp, nil
}
