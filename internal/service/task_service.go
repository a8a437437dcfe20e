package service

import (
	"context"
	"strings"
	"time"

	"todo-manager/internal/model"
)

// TaskStore is the persistence the task service needs.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	List(ctx context.Context, includeDeleted bool) ([]model.Task, error)
	FindByID(ctx context.Context, id uint) (*model.Task, error)
	Update(ctx context.Context, id uint, patch model.TaskPatch) error
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	Complete(ctx context.Context, id uint) error
	SetFavorite(ctx context.Context, id uint, favorite bool) error
	Purge(ctx context.Context, id uint) error
	Filter(ctx context.Context, f model.TaskFilter) ([]model.Task, error)
	Search(ctx context.Context, keyword string) ([]model.Task, error)
	Favorites(ctx context.Context) ([]model.Task, error)
}

// TaskInput represents data required to create a task. Priority and Category
// are user tokens; empty means the default.
type TaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
	Category    string
}

// ClearToken removes an optional field (category) in TaskChanges.
const ClearToken = "none"

// TaskChanges is a partial update in user tokens. Nil fields are left as they are.
type TaskChanges struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *string
	Category     *string
}

// TaskService converts user input into store calls.
type TaskService struct {
	store TaskStore
}

func NewTaskService(store TaskStore) *TaskService {
	return &TaskService{store: store}
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	if err := model.ValidateTitle(input.Title); err != nil {
		return nil, err
	}

	priority := model.PriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		p, err := model.ParsePriority(input.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	var category *model.Category
	if strings.TrimSpace(input.Category) != "" {
		c, err := model.ParseCategory(input.Category)
		if err != nil {
			return nil, err
		}
		category = &c
	}

	task := model.Task{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     calendarDate(input.DueDate),
		Priority:    priority,
		Category:    category,
	}
	if err := s.store.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, includeDeleted bool) ([]model.Task, error) {
	return s.store.List(ctx, includeDeleted)
}

func (s *TaskService) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	return s.store.FindByID(ctx, id)
}

// UpdateTask applies the supplied changes. A soft-deleted task can be edited
// and stays deleted.
func (s *TaskService) UpdateTask(ctx context.Context, id uint, changes TaskChanges) error {
	patch := model.TaskPatch{
		Description:  changes.Description,
		DueDate:      calendarDate(changes.DueDate),
		ClearDueDate: changes.ClearDueDate,
	}
	if changes.Title != nil {
		if err := model.ValidateTitle(*changes.Title); err != nil {
			return err
		}
		patch.Title = changes.Title
	}
	if changes.Priority != nil {
		p, err := model.ParsePriority(*changes.Priority)
		if err != nil {
			return err
		}
		patch.Priority = &p
	}
	if changes.Category != nil && strings.EqualFold(strings.TrimSpace(*changes.Category), ClearToken) {
		patch.ClearCategory = true
	} else if changes.Category != nil {
		c, err := model.ParseCategory(*changes.Category)
		if err != nil {
			return err
		}
		patch.Category = &c
	}
	return s.store.Update(ctx, id, patch)
}

func (s *TaskService) DeleteTask(ctx context.Context, id uint) error {
	return s.store.SoftDelete(ctx, id)
}

func (s *TaskService) RestoreTask(ctx context.Context, id uint) error {
	return s.store.Restore(ctx, id)
}

func (s *TaskService) CompleteTask(ctx context.Context, id uint) error {
	return s.store.Complete(ctx, id)
}

func (s *TaskService) FavoriteTask(ctx context.Context, id uint, favorite bool) error {
	return s.store.SetFavorite(ctx, id, favorite)
}

// PurgeTask removes a task and its reminders permanently.
func (s *TaskService) PurgeTask(ctx context.Context, id uint) error {
	return s.store.Purge(ctx, id)
}

// FilterTasks narrows the live tasks. Priority and category must be known
// tokens when given; an unknown state simply matches nothing.
func (s *TaskService) FilterTasks(ctx context.Context, state, priority, category string) ([]model.Task, error) {
	f := model.TaskFilter{State: strings.ToLower(strings.TrimSpace(state))}
	if strings.TrimSpace(priority) != "" {
		p, err := model.ParsePriority(priority)
		if err != nil {
			return nil, err
		}
		f.Priority = &p
	}
	if strings.TrimSpace(category) != "" {
		c, err := model.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		f.Category = &c
	}
	return s.store.Filter(ctx, f)
}

func (s *TaskService) SearchTasks(ctx context.Context, keyword string) ([]model.Task, error) {
	return s.store.Search(ctx, strings.TrimSpace(keyword))
}

func (s *TaskService) ListFavorites(ctx context.Context) ([]model.Task, error) {
	return s.store.Favorites(ctx)
}

func calendarDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := model.CalendarDate(*t)
	return &d
}
