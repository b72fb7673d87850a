package task

import (
	"errors"
	"fmt"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"gorm.io/gorm"
)

var (
	// ErrTaskNotFound is returned when a task does not exist or belongs to another user.
	ErrTaskNotFound = errors.New("task not found")
	// ErrCategoryNotFound is returned when a category does not exist or belongs to another user.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryExists is returned when a user already has a category with the same name.
	ErrCategoryExists = errors.New("category with this name already exists")
	// ErrTagNotFound is returned when a tag does not exist or belongs to another user.
	ErrTagNotFound = errors.New("tag not found")
	// ErrTagExists is returned when a user already has a tag with the same name.
	ErrTagExists = errors.New("tag with this name already exists")
)

// TaskRepository persists tasks, categories and tags using GORM.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// live scopes a task query to one user's tasks that are not soft-deleted.
func live(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tasks.user_id = ? AND tasks.status <> ?", userID, domain.StatusDeleted)
	}
}

// CreateTask stores a task and links its tags. Tags must already exist.
func (r *TaskRepository) CreateTask(task *domain.Task) error {
	if err := r.db.Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindTask returns a live task of the user with its tags.
func (r *TaskRepository) FindTask(userID, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.Scopes(live(userID)).Preload("Tags").First(&task, "tasks.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// FindTasks returns the live tasks of the user among ids. Unknown ids are skipped.
func (r *TaskRepository) FindTasks(userID string, ids []string) ([]domain.Task, error) {
	var tasks []domain.Task
	if len(ids) == 0 {
		return tasks, nil
	}
	if err := r.db.Scopes(live(userID)).Preload("Tags").
		Where("tasks.id IN ?", ids).
		Order("tasks.created_at").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

// ListTasks returns every live task of the user in creation order.
func (r *TaskRepository) ListTasks(userID string) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.db.Scopes(live(userID)).Preload("Tags").
		Order("tasks.created_at").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// SaveTask writes all task columns. When replaceTags is set the tag links are
// replaced by task.Tags.
func (r *TaskRepository) SaveTask(task *domain.Task, replaceTags bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Save(task).Error; err != nil {
			return fmt.Errorf("failed to save task: %w", err)
		}
		if !replaceTags {
			return nil
		}
		assoc := tx.Model(task).Association("Tags")
		var err error
		if len(task.Tags) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(task.Tags)
		}
		if err != nil {
			return fmt.Errorf("failed to replace tags: %w", err)
		}
		return nil
	})
}

// SaveTasks writes the columns of several tasks in one transaction. Tag links are untouched.
func (r *TaskRepository) SaveTasks(tasks []domain.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range tasks {
			if err := tx.Omit("Tags").Save(&tasks[i]).Error; err != nil {
				return fmt.Errorf("failed to save task %s: %w", tasks[i].ID, err)
			}
		}
		return nil
	})
}

// DueBetween returns pending tasks of all users whose due date is in (from, to].
func (r *TaskRepository) DueBetween(from, to time.Time) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.db.
		Where("status = ? AND due_date IS NOT NULL AND due_date > ? AND due_date <= ?",
			domain.StatusPending, from.UTC(), to.UTC()).
		Order("due_date").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to query due tasks: %w", err)
	}
	return tasks, nil
}

// PurgeUser removes every task, category and tag owned by the user.
func (r *TaskRepository) PurgeUser(userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM task_tags WHERE task_id IN (SELECT id FROM tasks WHERE user_id = ?)", userID,
		).Error; err != nil {
			return fmt.Errorf("failed to unlink tags: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.Task{}).Error; err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.Category{}).Error; err != nil {
			return fmt.Errorf("failed to delete categories: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.Tag{}).Error; err != nil {
			return fmt.Errorf("failed to delete tags: %w", err)
		}
		return nil
	})
}

// CreateCategory stores a category, rejecting duplicate names for the same user.
func (r *TaskRepository) CreateCategory(category *domain.Category) error {
	exists, err := r.categoryNameTaken(category.UserID, category.Name, "")
	if err != nil {
		return err
	}
	if exists {
		return ErrCategoryExists
	}
	if err := r.db.Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCategoryExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// FindCategory returns a category of the user.
func (r *TaskRepository) FindCategory(userID, id string) (*domain.Category, error) {
	var category domain.Category
	if err := r.db.First(&category, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &category, nil
}

// FindCategoryByName returns a category of the user by exact name.
func (r *TaskRepository) FindCategoryByName(userID, name string) (*domain.Category, error) {
	var category domain.Category
	if err := r.db.First(&category, "user_id = ? AND name = ?", userID, name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &category, nil
}

// ListCategories returns the user's categories ordered by name.
func (r *TaskRepository) ListCategories(userID string) ([]domain.Category, error) {
	var categories []domain.Category
	if err := r.db.Where("user_id = ?", userID).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

type countRow struct {
	ID    string
	Count int64
}

// CategoryTaskCounts maps category id to the number of live tasks in it.
func (r *TaskRepository) CategoryTaskCounts(userID string) (map[string]int64, error) {
	var rows []countRow
	if err := r.db.Model(&domain.Task{}).
		Select("category_id AS id, COUNT(*) AS count").
		Scopes(live(userID)).
		Where("category_id IS NOT NULL").
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count category tasks: %w", err)
	}
	return toCounts(rows), nil
}

// UpdateCategory writes the mutable category columns.
func (r *TaskRepository) UpdateCategory(category *domain.Category) error {
	exists, err := r.categoryNameTaken(category.UserID, category.Name, category.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrCategoryExists
	}
	result := r.db.Model(&domain.Category{}).
		Where("id = ? AND user_id = ?", category.ID, category.UserID).
		Updates(map[string]any{
			"name":        category.Name,
			"description": category.Description,
			"color":       category.Color,
			"updated_at":  category.UpdatedAt,
		})
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCategoryExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// DeleteCategory removes a category and detaches the tasks that referenced it.
func (r *TaskRepository) DeleteCategory(userID, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Task{}).
			Where("user_id = ? AND category_id = ?", userID, id).
			Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach tasks: %w", err)
		}
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Category{})
		if err := result.Error; err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		if result.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
}

func (r *TaskRepository) categoryNameTaken(userID, name, exceptID string) (bool, error) {
	var count int64
	q := r.db.Model(&domain.Category{}).Where("user_id = ? AND name = ?", userID, name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return count > 0, nil
}

// CreateTag stores a tag, rejecting duplicate names for the same user.
func (r *TaskRepository) CreateTag(tag *domain.Tag) error {
	exists, err := r.tagNameTaken(tag.UserID, tag.Name, "")
	if err != nil {
		return err
	}
	if exists {
		return ErrTagExists
	}
	if err := r.db.Create(tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrTagExists
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// FindTag returns a tag of the user.
func (r *TaskRepository) FindTag(userID, id string) (*domain.Tag, error) {
	var tag domain.Tag
	if err := r.db.First(&tag, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}
	return &tag, nil
}

// FindTagsByName returns the user's tags whose names are in names.
func (r *TaskRepository) FindTagsByName(userID string, names []string) ([]domain.Tag, error) {
	var tags []domain.Tag
	if len(names) == 0 {
		return tags, nil
	}
	if err := r.db.Where("user_id = ? AND name IN ?", userID, names).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to find tags: %w", err)
	}
	return tags, nil
}

// ListTags returns the user's tags ordered by name.
func (r *TaskRepository) ListTags(userID string) ([]domain.Tag, error) {
	var tags []domain.Tag
	if err := r.db.Where("user_id = ?", userID).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// TagTaskCounts maps tag id to the number of live tasks carrying it.
func (r *TaskRepository) TagTaskCounts(userID string) (map[string]int64, error) {
	var rows []countRow
	if err := r.db.Table("task_tags").
		Select("task_tags.tag_id AS id, COUNT(*) AS count").
		Joins("JOIN tasks ON tasks.id = task_tags.task_id").
		Scopes(live(userID)).
		Group("task_tags.tag_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count tag usage: %w", err)
	}
	return toCounts(rows), nil
}

// UpdateTag writes the mutable tag columns.
func (r *TaskRepository) UpdateTag(tag *domain.Tag) error {
	exists, err := r.tagNameTaken(tag.UserID, tag.Name, tag.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrTagExists
	}
	result := r.db.Model(&domain.Tag{}).
		Where("id = ? AND user_id = ?", tag.ID, tag.UserID).
		Updates(map[string]any{
			"name":       tag.Name,
			"color":      tag.Color,
			"updated_at": tag.UpdatedAt,
		})
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrTagExists
		}
		return fmt.Errorf("failed to update tag: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}

// DeleteTag removes a tag from every task and then deletes it.
func (r *TaskRepository) DeleteTag(userID, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Tag{})
		if err := result.Error; err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}
		if result.RowsAffected == 0 {
			return ErrTagNotFound
		}
		if err := tx.Exec("DELETE FROM task_tags WHERE tag_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to unlink tag: %w", err)
		}
		return nil
	})
}

func (r *TaskRepository) tagNameTaken(userID, name, exceptID string) (bool, error) {
	var count int64
	q := r.db.Model(&domain.Tag{}).Where("user_id = ? AND name = ?", userID, name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check tag name: %w", err)
	}
	return count > 0, nil
}

func toCounts(rows []countRow) map[string]int64 {
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Count
	}
	return counts
}
