package task

import (
	"context"
	"errors"
	"testing"

	domain "github.com/example/todo-app/domain/task"
)

func TestTaskService_Categories(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()

	work, err := s.CreateCategory(ctx, CategoryRequest{UserID: "user-1", Name: "Work", Color: "#ff0000"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if work.Color != "#FF0000" {
		t.Errorf("Color = %s, want #FF0000", work.Color)
	}

	home, err := s.CreateCategory(ctx, CategoryRequest{UserID: "user-1", Name: "Home"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if home.Color != domain.DefaultCategoryColor {
		t.Errorf("Color = %s, want default", home.Color)
	}

	// Names are unique per user only.
	if _, err := s.CreateCategory(ctx, CategoryRequest{UserID: "user-1", Name: "Work"}); !errors.Is(err, ErrCategoryExists) {
		t.Errorf("duplicate CreateCategory() error = %v, want ErrCategoryExists", err)
	}
	if _, err := s.CreateCategory(ctx, CategoryRequest{UserID: "user-2", Name: "Work"}); err != nil {
		t.Errorf("CreateCategory() for another user error = %v", err)
	}
	if _, err := s.UpdateCategory(ctx, CategoryRequest{UserID: "user-1", CategoryID: home.ID, Name: "Work"}); !errors.Is(err, ErrCategoryExists) {
		t.Errorf("rename onto existing name error = %v, want ErrCategoryExists", err)
	}

	task := createTask(t, s, CreateTaskRequest{Title: "Report", CategoryID: &work.ID})
	createTask(t, s, CreateTaskRequest{Title: "Slides", CategoryID: &work.ID})

	categories, err := s.ListCategories(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) != 2 || categories[0].Name != "Home" || categories[1].TaskCount != 2 {
		t.Errorf("categories = %+v, want Home(0) and Work(2)", categories)
	}

	if err := s.DeleteCategory(ctx, "user-1", work.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	got, err := s.GetTask(ctx, "user-1", task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.CategoryID != nil {
		t.Errorf("CategoryID = %v, want detached", *got.CategoryID)
	}
	if err := s.DeleteCategory(ctx, "user-1", work.ID); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("second DeleteCategory() error = %v, want ErrCategoryNotFound", err)
	}
}

func TestTaskService_CategoryValidation(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     CategoryRequest
		wantErr error
	}{
		{"empty name", CategoryRequest{Name: " "}, ErrCategoryNameRequired},
		{"long name", CategoryRequest{Name: "abcdefghijabcdefghijabcdefghijabcdefghijabcdefghijk"}, ErrCategoryNameTooLong},
		{"bad color", CategoryRequest{Name: "ok", Color: "blue"}, ErrInvalidColor},
		{"short color", CategoryRequest{Name: "ok", Color: "#FFF"}, ErrInvalidColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.UserID = "user-1"
			if _, err := s.CreateCategory(ctx, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateCategory() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskService_Tags(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()

	tag, err := s.CreateTag(ctx, TagRequest{UserID: "user-1", Name: "urgent", Color: "#EF4444"})
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	if _, err := s.CreateTag(ctx, TagRequest{UserID: "user-1", Name: "urgent"}); !errors.Is(err, ErrTagExists) {
		t.Errorf("duplicate CreateTag() error = %v, want ErrTagExists", err)
	}

	task := createTask(t, s, CreateTaskRequest{Title: "Fix prod", Tags: []string{"urgent", "ops"}})
	if !task.HasTag("urgent") {
		t.Fatal("task should carry the existing urgent tag")
	}

	renamed, err := s.UpdateTag(ctx, TagRequest{UserID: "user-1", TagID: tag.ID, Name: "asap"})
	if err != nil {
		t.Fatalf("UpdateTag() error = %v", err)
	}
	if renamed.Name != "asap" || renamed.Color != "#EF4444" {
		t.Errorf("renamed = %+v, want asap with color kept", renamed)
	}
	if _, err := s.UpdateTag(ctx, TagRequest{UserID: "user-2", TagID: tag.ID, Name: "x"}); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("UpdateTag() by another user error = %v, want ErrTagNotFound", err)
	}

	if err := s.DeleteTag(ctx, "user-1", tag.ID); err != nil {
		t.Fatalf("DeleteTag() error = %v", err)
	}
	got, _ := s.GetTask(ctx, "user-1", task.ID)
	if len(got.Tags) != 1 || got.Tags[0].Name != "ops" {
		t.Errorf("Tags = %+v, want only ops", got.Tags)
	}

	tags, _ := s.ListTags(ctx, "user-1")
	if len(tags) != 1 {
		t.Errorf("len(tags) = %d, want 1", len(tags))
	}
}
