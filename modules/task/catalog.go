package task

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	domain "github.com/example/todo-app/domain/task"
	"github.com/google/uuid"
)

var (
	ErrCategoryNameRequired       = errors.New("category name is required")
	ErrCategoryNameTooLong        = fmt.Errorf("category name must be at most %d characters", domain.MaxCategoryNameLength)
	ErrCategoryDescriptionTooLong = fmt.Errorf("category description must be at most %d characters", domain.MaxCategoryDescriptionLength)
	ErrTagNameRequired            = errors.New("tag name is required")
	ErrTagNameTooLong             = fmt.Errorf("tag name must be at most %d characters", domain.MaxTagNameLength)
	ErrInvalidColor               = errors.New("invalid color: must be a hex value like #3B82F6")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CreateCategory validates and stores a category.
func (s *TaskService) CreateCategory(_ context.Context, req CategoryRequest) (*domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	category := &domain.Category{
		ID:     uuid.New().String(),
		UserID: req.UserID,
		Name:   name,
		Color:  domain.DefaultCategoryColor,
	}
	if req.Description != nil {
		if utf8.RuneCountInString(*req.Description) > domain.MaxCategoryDescriptionLength {
			return nil, ErrCategoryDescriptionTooLong
		}
		category.Description = *req.Description
	}
	if req.Color != "" {
		color, err := parseColor(req.Color)
		if err != nil {
			return nil, err
		}
		category.Color = color
	}

	if err := s.repo.CreateCategory(category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns the user's categories with their live task counts.
func (s *TaskService) ListCategories(_ context.Context, userID string) ([]CategoryResponse, error) {
	categories, err := s.repo.ListCategories(userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CategoryTaskCounts(userID)
	if err != nil {
		return nil, err
	}

	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryResponse(&categories[i], counts[categories[i].ID]))
	}
	return out, nil
}

// UpdateCategory renames, recolors or redescribes a category. Empty fields are kept.
func (s *TaskService) UpdateCategory(_ context.Context, req CategoryRequest) (*domain.Category, error) {
	category, err := s.repo.FindCategory(req.UserID, req.CategoryID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		if err := validateCategoryName(name); err != nil {
			return nil, err
		}
		category.Name = name
	}
	if req.Description != nil {
		if utf8.RuneCountInString(*req.Description) > domain.MaxCategoryDescriptionLength {
			return nil, ErrCategoryDescriptionTooLong
		}
		category.Description = *req.Description
	}
	if req.Color != "" {
		color, err := parseColor(req.Color)
		if err != nil {
			return nil, err
		}
		category.Color = color
	}

	category.UpdatedAt = s.now()
	if err := s.repo.UpdateCategory(category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category; its tasks become uncategorized.
func (s *TaskService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	if err := s.repo.DeleteCategory(userID, categoryID); err != nil {
		return err
	}
	s.invalidateStats(ctx, userID)
	return nil
}

// CreateTag validates and stores a tag.
func (s *TaskService) CreateTag(_ context.Context, req TagRequest) (*domain.Tag, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateTagName(name); err != nil {
		return nil, err
	}
	tag := &domain.Tag{
		ID:     uuid.New().String(),
		UserID: req.UserID,
		Name:   name,
		Color:  domain.DefaultTagColor,
	}
	if req.Color != "" {
		color, err := parseColor(req.Color)
		if err != nil {
			return nil, err
		}
		tag.Color = color
	}

	if err := s.repo.CreateTag(tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns the user's tags with the number of live tasks carrying each.
func (s *TaskService) ListTags(_ context.Context, userID string) ([]TagResponse, error) {
	tags, err := s.repo.ListTags(userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.TagTaskCounts(userID)
	if err != nil {
		return nil, err
	}

	out := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagResponse{
			ID:        tag.ID,
			Name:      tag.Name,
			Color:     tag.Color,
			TaskCount: counts[tag.ID],
		})
	}
	return out, nil
}

// UpdateTag renames or recolors a tag. Empty fields are kept.
func (s *TaskService) UpdateTag(_ context.Context, req TagRequest) (*domain.Tag, error) {
	tag, err := s.repo.FindTag(req.UserID, req.TagID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		if err := validateTagName(name); err != nil {
			return nil, err
		}
		tag.Name = name
	}
	if req.Color != "" {
		color, err := parseColor(req.Color)
		if err != nil {
			return nil, err
		}
		tag.Color = color
	}

	tag.UpdatedAt = s.now()
	if err := s.repo.UpdateTag(tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag removes a tag from all tasks and deletes it.
func (s *TaskService) DeleteTag(_ context.Context, userID, tagID string) error {
	return s.repo.DeleteTag(userID, tagID)
}

func validateCategoryName(name string) error {
	if name == "" {
		return ErrCategoryNameRequired
	}
	if utf8.RuneCountInString(name) > domain.MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}
	return nil
}

func validateTagName(name string) error {
	if name == "" {
		return ErrTagNameRequired
	}
	if utf8.RuneCountInString(name) > domain.MaxTagNameLength {
		return ErrTagNameTooLong
	}
	return nil
}

func parseColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !colorPattern.MatchString(s) {
		return "", ErrInvalidColor
	}
	return strings.ToUpper(s), nil
}
