package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo-manager/internal/model"
)

// TaskRepository is the only owner of persisted tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create stores a new task with fresh flags and fills in its ID.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := model.ValidateTitle(task.Title); err != nil {
		return err
	}
	task.ID = 0
	task.Completed = false
	task.Favorite = false
	task.Deleted = false
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// List returns tasks in insertion order, hiding soft-deleted ones unless asked.
func (r *TaskRepository) List(ctx context.Context, includeDeleted bool) ([]model.Task, error) {
	query := r.db.WithContext(ctx)
	if !includeDeleted {
		query = query.Where("deleted = ?", false)
	}
	var tasks []model.Task
	if err := query.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// FindByID loads a task whether or not it is soft-deleted.
func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

// Update changes only the fields set in patch. Unknown ids are ignored and
// soft-deleted tasks stay deleted.
func (r *TaskRepository) Update(ctx context.Context, id uint, patch model.TaskPatch) error {
	if patch.Empty() {
		return nil
	}

	updates := make(map[string]interface{})
	if patch.Title != nil {
		if err := model.ValidateTitle(*patch.Title); err != nil {
			return err
		}
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.ClearDueDate {
		updates["due_date"] = nil
	} else if patch.DueDate != nil {
		updates["due_date"] = *patch.DueDate
	}
	if patch.Priority != nil {
		updates["priority"] = *patch.Priority
	}
	if patch.ClearCategory {
		updates["category"] = nil
	} else if patch.Category != nil {
		updates["category"] = *patch.Category
	}

	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// SoftDelete hides a task from default listings.
func (r *TaskRepository) SoftDelete(ctx context.Context, id uint) error {
	if err := r.setFlag(ctx, id, "deleted", true); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Restore brings a soft-deleted task back.
func (r *TaskRepository) Restore(ctx context.Context, id uint) error {
	if err := r.setFlag(ctx, id, "deleted", false); err != nil {
		return fmt.Errorf("restore task: %w", err)
	}
	return nil
}

// Complete marks a task done. Deleted tasks may be completed but remain hidden.
func (r *TaskRepository) Complete(ctx context.Context, id uint) error {
	if err := r.setFlag(ctx, id, "completed", true); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

func (r *TaskRepository) SetFavorite(ctx context.Context, id uint, favorite bool) error {
	if err := r.setFlag(ctx, id, "favorite", favorite); err != nil {
		return fmt.Errorf("favorite task: %w", err)
	}
	return nil
}

// setFlag writes a boolean column only when it differs, so repeated calls
// leave updated_at alone.
func (r *TaskRepository) setFlag(ctx context.Context, id uint, column string, value bool) error {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: !value}).
		Update(column, value).Error
}

// Purge removes a task and its reminders for good.
func (r *TaskRepository) Purge(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&model.Reminder{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Task{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("purge task: %w", err)
	}
	return nil
}

// Filter returns live tasks matching every predicate set in f. An unrecognized
// state matches nothing.
func (r *TaskRepository) Filter(ctx context.Context, f model.TaskFilter) ([]model.Task, error) {
	query := r.db.WithContext(ctx).Where("deleted = ?", false)

	switch f.State {
	case "":
	case model.StateCompleted:
		query = query.Where("completed = ?", true)
	case model.StatePending:
		query = query.Where("completed = ?", false)
	default:
		return []model.Task{}, nil
	}

	if f.Priority != nil {
		query = query.Where("priority = ?", *f.Priority)
	}
	if f.Category != nil {
		query = query.Where("category = ?", *f.Category)
	}

	var tasks []model.Task
	if err := query.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("filter tasks: %w", err)
	}
	return tasks, nil
}

// Search matches keyword against title or description, ignoring case.
// Both sides go through fold_case so non-ASCII letters compare the same way.
func (r *TaskRepository) Search(ctx context.Context, keyword string) ([]model.Task, error) {
	pattern := "%" + escapeLike(keyword) + "%"

	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("deleted = ?", false).
		Where("(fold_case(title) LIKE fold_case(?) ESCAPE '\\' OR fold_case(COALESCE(description, '')) LIKE fold_case(?) ESCAPE '\\')", pattern, pattern).
		Order("id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Favorites(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("favorite = ? AND deleted = ?", true, false).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return tasks, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
