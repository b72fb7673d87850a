package task

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/modules/cache"
	"github.com/google/uuid"
)

var (
	ErrTitleRequired        = errors.New("title is required")
	ErrTitleTooLong         = fmt.Errorf("title must be at most %d characters", domain.MaxTitleLength)
	ErrDescriptionTooLong   = fmt.Errorf("description must be at most %d characters", domain.MaxDescriptionLength)
	ErrInvalidPriority      = errors.New("invalid priority: must be low, medium or high")
	ErrInvalidStatus        = errors.New("invalid status: must be pending or completed")
	ErrInvalidBulkOperation = errors.New("invalid bulk operation: must be DELETE, COMPLETE or MOVE_TO_CATEGORY")
	ErrNoTaskIDs            = errors.New("task_ids is required")
	ErrUnsupportedFormat    = errors.New("unsupported export format: only json is available")
)

// TaskService implements task use cases for a single user at a time.
type TaskService struct {
	repo  *TaskRepository
	cache cache.Service
	now   func() time.Time
}

// NewTaskService creates a TaskService. statsCache may be nil, in which case
// statistics are always computed from the database.
func NewTaskService(repo *TaskRepository, statsCache cache.Service) *TaskService {
	return &TaskService{
		repo:  repo,
		cache: statsCache,
		now:   time.Now,
	}
}

// CreateTask validates and stores a new pending task.
func (s *TaskService) CreateTask(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	return s.createTask(ctx, req, nil)
}

// createTask stores a new task. A non-nil completedAt stores it as completed
// at that instant in the same insert.
func (s *TaskService) createTask(ctx context.Context, req CreateTaskRequest, completedAt *time.Time) (*domain.Task, error) {
	title := strings.TrimSpace(req.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(req.Description); err != nil {
		return nil, err
	}
	priority := domain.PriorityMedium
	if req.Priority != "" {
		p, err := parsePriority(req.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	task := &domain.Task{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Title:       title,
		Description: req.Description,
		Status:      domain.StatusPending,
		Priority:    priority,
		DueDate:     utcPtr(req.DueDate),
	}
	if completedAt != nil {
		task.Status = domain.StatusCompleted
		task.CompletedAt = utcPtr(completedAt)
	}

	if req.CategoryID != nil && *req.CategoryID != "" {
		if _, err := s.repo.FindCategory(req.UserID, *req.CategoryID); err != nil {
			return nil, err
		}
		id := *req.CategoryID
		task.CategoryID = &id
	}

	tags, err := s.resolveTags(req.UserID, req.Tags)
	if err != nil {
		return nil, err
	}
	task.Tags = tags

	if err := s.repo.CreateTask(task); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, req.UserID)
	return task, nil
}

// GetTask returns one live task of the user.
func (s *TaskService) GetTask(_ context.Context, userID, taskID string) (*domain.Task, error) {
	return s.repo.FindTask(userID, taskID)
}

// UpdateTask applies a partial update. The status is changed through UpdateStatus.
func (s *TaskService) UpdateTask(ctx context.Context, req UpdateTaskRequest) (*domain.Task, error) {
	task, err := s.repo.FindTask(req.UserID, req.TaskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		task.Title = title
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return nil, err
		}
		task.Description = *req.Description
	}
	if req.Priority != nil {
		p, err := parsePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = p
	}
	switch {
	case req.ClearDueDate:
		task.DueDate = nil
	case req.DueDate != nil:
		task.DueDate = utcPtr(req.DueDate)
	}
	switch {
	case req.ClearCategory:
		task.CategoryID = nil
	case req.CategoryID != nil && *req.CategoryID != "":
		if _, err := s.repo.FindCategory(req.UserID, *req.CategoryID); err != nil {
			return nil, err
		}
		id := *req.CategoryID
		task.CategoryID = &id
	}

	replaceTags := req.Tags != nil
	if replaceTags {
		tags, err := s.resolveTags(req.UserID, *req.Tags)
		if err != nil {
			return nil, err
		}
		task.Tags = tags
	}

	task.UpdatedAt = s.now()
	if err := s.repo.SaveTask(task, replaceTags); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, req.UserID)
	return task, nil
}

// UpdateStatus moves a task to pending or completed. The returned flag is
// true when the task became completed with this call.
func (s *TaskService) UpdateStatus(ctx context.Context, userID, taskID, status string) (*domain.Task, bool, error) {
	target := domain.Status(strings.ToLower(strings.TrimSpace(status)))
	if target != domain.StatusPending && target != domain.StatusCompleted {
		return nil, false, ErrInvalidStatus
	}

	task, err := s.repo.FindTask(userID, taskID)
	if err != nil {
		return nil, false, err
	}

	completedNow := target == domain.StatusCompleted && task.Status != domain.StatusCompleted
	now := s.now()
	task.SetStatus(target, now)
	task.UpdatedAt = now
	if err := s.repo.SaveTask(task, false); err != nil {
		return nil, false, err
	}
	s.invalidateStats(ctx, userID)
	return task, completedNow, nil
}

// DeleteTask soft-deletes a task and returns its last state.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := s.repo.FindTask(userID, taskID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	task.SetStatus(domain.StatusDeleted, now)
	task.UpdatedAt = now
	if err := s.repo.SaveTask(task, false); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, userID)
	return task, nil
}

// ListTasks filters and sorts the user's collection in memory and returns one page.
func (s *TaskService) ListTasks(_ context.Context, req ListTasksRequest) (*ListTasksResponse, error) {
	tasks, err := s.repo.ListTasks(req.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(loadLocation(req.TimeZone))
	visible := domain.SortTasks(
		domain.FilterTasks(tasks, req.Filter, now),
		domain.ParseSort(req.SortBy, req.SortDir),
	)

	page, size := normalizePage(req.Page, req.Size)
	total := len(visible)
	// page*size can overflow for huge pages; those are past the end anyway.
	start := total
	if page <= total/size {
		start = min(page*size, total)
	}
	end := start + size
	if end > total {
		end = total
	}

	return &ListTasksResponse{
		Tasks:      toTaskResponses(visible[start:end]),
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: int(math.Ceil(float64(total) / float64(size))),
		Counts:     domain.Aggregate(tasks, now),
	}, nil
}

// Bulk applies one operation to the user's tasks among req.TaskIDs. Tasks of
// other users and unknown ids are ignored. The affected tasks are returned.
func (s *TaskService) Bulk(ctx context.Context, req BulkRequest) ([]domain.Task, error) {
	op := strings.ToUpper(strings.TrimSpace(req.Operation))
	switch op {
	case BulkDelete, BulkComplete, BulkMoveToCategory:
	default:
		return nil, ErrInvalidBulkOperation
	}
	if len(req.TaskIDs) == 0 {
		return nil, ErrNoTaskIDs
	}

	var categoryID *string
	if op == BulkMoveToCategory {
		if req.CategoryID == "" {
			return nil, ErrCategoryNotFound
		}
		if _, err := s.repo.FindCategory(req.UserID, req.CategoryID); err != nil {
			return nil, err
		}
		id := req.CategoryID
		categoryID = &id
	}

	tasks, err := s.repo.FindTasks(req.UserID, req.TaskIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	changed := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		switch op {
		case BulkDelete:
			t.SetStatus(domain.StatusDeleted, now)
		case BulkComplete:
			if t.Status == domain.StatusCompleted {
				continue
			}
			t.SetStatus(domain.StatusCompleted, now)
		case BulkMoveToCategory:
			t.CategoryID = categoryID
		}
		t.UpdatedAt = now
		changed = append(changed, t)
	}

	if len(changed) == 0 {
		return changed, nil
	}
	if err := s.repo.SaveTasks(changed); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, req.UserID)
	return changed, nil
}

// Export builds a portable document with every live task, category and tag of the user.
func (s *TaskService) Export(_ context.Context, req ExportRequest) (*ExportDocument, error) {
	if f := strings.ToLower(strings.TrimSpace(req.Format)); f != "" && f != "json" {
		return nil, ErrUnsupportedFormat
	}

	tasks, err := s.repo.ListTasks(req.UserID)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.ListCategories(req.UserID)
	if err != nil {
		return nil, err
	}
	tags, err := s.repo.ListTags(req.UserID)
	if err != nil {
		return nil, err
	}

	categoryNames := make(map[string]string, len(categories))
	doc := &ExportDocument{
		Version:    1,
		ExportedAt: s.now().UTC(),
		Tasks:      make([]ExportedTask, 0, len(tasks)),
		Categories: make([]CategoryResponse, 0, len(categories)),
		Tags:       make([]TagResponse, 0, len(tags)),
	}
	for i := range categories {
		categoryNames[categories[i].ID] = categories[i].Name
		doc.Categories = append(doc.Categories, toCategoryResponse(&categories[i], 0))
	}
	for _, tag := range tags {
		doc.Tags = append(doc.Tags, TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}
	for _, t := range tasks {
		exported := ExportedTask{
			Title:       t.Title,
			Description: t.Description,
			Status:      string(t.Status),
			Priority:    string(t.Priority),
			DueDate:     t.DueDate,
			CompletedAt: t.CompletedAt,
			CreatedAt:   t.CreatedAt,
		}
		if t.CategoryID != nil {
			exported.Category = categoryNames[*t.CategoryID]
		}
		for _, tag := range t.Tags {
			exported.Tags = append(exported.Tags, tag.Name)
		}
		doc.Tasks = append(doc.Tasks, exported)
	}
	return doc, nil
}

// Import creates tasks from exported records. Categories are matched by name
// and created when missing; invalid records are reported and skipped.
func (s *TaskService) Import(ctx context.Context, req ImportRequest) (*ImportResponse, error) {
	resp := &ImportResponse{Errors: []string{}}
	categories := make(map[string]string)

	for i, rec := range req.Tasks {
		create := CreateTaskRequest{
			UserID:      req.UserID,
			Title:       rec.Title,
			Description: rec.Description,
			Priority:    rec.Priority,
			DueDate:     rec.DueDate,
			Tags:        rec.Tags,
		}

		if name := strings.TrimSpace(rec.Category); name != "" {
			id, ok := categories[name]
			if !ok {
				c, err := s.categoryForImport(ctx, req.UserID, name)
				if err != nil {
					resp.Errors = append(resp.Errors, fmt.Sprintf("task %d: %v", i+1, err))
					continue
				}
				id = c.ID
				categories[name] = id
			}
			create.CategoryID = &id
		}

		var completedAt *time.Time
		if strings.EqualFold(strings.TrimSpace(rec.Status), string(domain.StatusCompleted)) {
			at := s.now()
			if rec.CompletedAt != nil {
				at = *rec.CompletedAt
			}
			completedAt = &at
		}

		if _, err := s.createTask(ctx, create, completedAt); err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("task %d: %v", i+1, err))
			continue
		}
		resp.Imported++
	}
	return resp, nil
}

func (s *TaskService) categoryForImport(ctx context.Context, userID, name string) (*domain.Category, error) {
	c, err := s.repo.FindCategoryByName(userID, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrCategoryNotFound) {
		return nil, err
	}
	return s.CreateCategory(ctx, CategoryRequest{UserID: userID, Name: name})
}

// DueSoon returns pending tasks of all users due in (from, to].
func (s *TaskService) DueSoon(_ context.Context, from, to time.Time) ([]domain.Task, error) {
	return s.repo.DueBetween(from, to)
}

// PurgeUser deletes everything the user owns.
func (s *TaskService) PurgeUser(ctx context.Context, userID string) error {
	if err := s.repo.PurgeUser(userID); err != nil {
		return err
	}
	s.invalidateStats(ctx, userID)
	return nil
}

// resolveTags maps tag names to the user's tags, creating missing ones with the default color.
func (s *TaskService) resolveTags(userID string, names []string) ([]domain.Tag, error) {
	names = domain.ParseTags(strings.Join(names, ","))
	if len(names) == 0 {
		return nil, nil
	}
	for _, name := range names {
		if err := validateTagName(name); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.FindTagsByName(userID, names)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]domain.Tag, len(existing))
	for _, tag := range existing {
		byName[tag.Name] = tag
	}

	tags := make([]domain.Tag, 0, len(names))
	for _, name := range names {
		tag, ok := byName[name]
		if !ok {
			tag = domain.Tag{
				ID:     uuid.New().String(),
				UserID: userID,
				Name:   name,
				Color:  domain.DefaultTagColor,
			}
			if err := s.repo.CreateTag(&tag); err != nil {
				return nil, err
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func validateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func parsePriority(s string) (domain.Priority, error) {
	p := domain.Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// loadLocation resolves an IANA zone name, falling back to UTC.
func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
