package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-manager/internal/model"
)

func strPtr(s string) *string { return &s }

func TestTaskService_CreateTaskDefaults(t *testing.T) {
	store := newMemTaskStore()
	svc := NewTaskService(store)

	task, err := svc.CreateTask(context.Background(), TaskInput{Title: "  Buy milk  ", Description: "2 liters"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), task.ID)
	assert.Equal(t, "  Buy milk  ", task.Title)

	stored, err := svc.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "  Buy milk  ", stored.Title)
	assert.Equal(t, "2 liters", task.Description)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Nil(t, task.Category)
	assert.Nil(t, task.DueDate)
}

func TestTaskService_CreateTaskParsesTokens(t *testing.T) {
	svc := NewTaskService(newMemTaskStore())

	due := time.Date(2025, 6, 1, 18, 30, 0, 0, time.FixedZone("UTC+3", 3*3600))
	task, err := svc.CreateTask(context.Background(), TaskInput{
		Title:    "Exam",
		DueDate:  &due,
		Priority: "HIGH",
		Category: " study ",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	require.NotNil(t, task.Category)
	assert.Equal(t, model.CategoryStudy, *task.Category)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *task.DueDate)
}

func TestTaskService_CreateTaskValidation(t *testing.T) {
	store := newMemTaskStore()
	svc := NewTaskService(store)
	ctx := context.Background()

	cases := []TaskInput{
		{Title: ""},
		{Title: "   "},
		{Title: "ok", Priority: "urgent"},
		{Title: "ok", Category: "garden"},
	}
	for _, input := range cases {
		task, err := svc.CreateTask(ctx, input)
		assert.ErrorIs(t, err, model.ErrValidation, "%+v", input)
		assert.Nil(t, task)
	}
	assert.Empty(t, store.tasks)
}

func TestTaskService_CreateTaskPropagatesStoreError(t *testing.T) {
	store := newMemTaskStore()
	store.lastErr = errors.New("disk full")
	svc := NewTaskService(store)

	_, err := svc.CreateTask(context.Background(), TaskInput{Title: "x"})
	assert.EqualError(t, err, "disk full")
}

func TestTaskService_UpdateTask(t *testing.T) {
	store := newMemTaskStore()
	svc := NewTaskService(store)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, TaskInput{Title: "Original", Description: "Desc"})
	require.NoError(t, err)

	due := time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)
	require.NoError(t, svc.UpdateTask(ctx, task.ID, TaskChanges{
		Title:    strPtr("New"),
		DueDate:  &due,
		Priority: strPtr("low"),
		Category: strPtr("home"),
	}))

	got, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "Desc", got.Description)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *got.DueDate)
	assert.Equal(t, model.PriorityLow, got.Priority)
	assert.Equal(t, model.CategoryHome, *got.Category)
}

func TestTaskService_UpdateTaskClearsOptionalFields(t *testing.T) {
	svc := NewTaskService(newMemTaskStore())
	ctx := context.Background()

	due := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	task, err := svc.CreateTask(ctx, TaskInput{Title: "Gym", DueDate: &due, Category: "home"})
	require.NoError(t, err)
	require.NotNil(t, task.Category)

	require.NoError(t, svc.UpdateTask(ctx, task.ID, TaskChanges{
		Title:        strPtr(" Gym "),
		ClearDueDate: true,
		Category:     strPtr("NONE"),
	}))

	got, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, " Gym ", got.Title)
	assert.Nil(t, got.DueDate)
	assert.Nil(t, got.Category)
}

func TestTaskService_UpdateTaskValidation(t *testing.T) {
	store := newMemTaskStore()
	svc := NewTaskService(store)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, TaskInput{Title: "Keep"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateTask(ctx, task.ID, TaskChanges{Title: strPtr(" ")}), model.ErrValidation)
	assert.ErrorIs(t, svc.UpdateTask(ctx, task.ID, TaskChanges{Priority: strPtr("meh")}), model.ErrValidation)
	assert.ErrorIs(t, svc.UpdateTask(ctx, task.ID, TaskChanges{Category: strPtr("gym")}), model.ErrValidation)
	assert.Empty(t, store.patches)
}

func TestTaskService_UpdateDeletedKeepsDeleted(t *testing.T) {
	svc := NewTaskService(newMemTaskStore())
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, TaskInput{Title: "Old"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTask(ctx, task.ID))
	require.NoError(t, svc.UpdateTask(ctx, task.ID, TaskChanges{Title: strPtr("New")}))

	got, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.True(t, got.Deleted)
}

func TestTaskService_DeleteRestorePurge(t *testing.T) {
	svc := NewTaskService(newMemTaskStore())
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, TaskInput{Title: "Cycle"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, task.ID))
	live, err := svc.ListTasks(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, live)

	require.NoError(t, svc.RestoreTask(ctx, task.ID))
	live, err = svc.ListTasks(ctx, false)
	require.NoError(t, err)
	assert.Len(t, live, 1)

	require.NoError(t, svc.PurgeTask(ctx, task.ID))
	all, err := svc.ListTasks(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTaskService_FavoritesAndComplete(t *testing.T) {
	svc := NewTaskService(newMemTaskStore())
	ctx := context.Background()

	a, err := svc.CreateTask(ctx, TaskInput{Title: "A"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, TaskInput{Title: "B"})
	require.NoError(t, err)

	require.NoError(t, svc.FavoriteTask(ctx, a.ID, true))
	require.NoError(t, svc.CompleteTask(ctx, a.ID))

	favorites, err := svc.ListFavorites(ctx)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, a.ID, favorites[0].ID)
	assert.True(t, favorites[0].Completed)

	require.NoError(t, svc.FavoriteTask(ctx, a.ID, false))
	favorites, err = svc.ListFavorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestTaskService_FilterTasksTokens(t *testing.T) {
	store := newMemTaskStore()
	svc := NewTaskService(store)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, TaskInput{Title: "High", Priority: "high", Category: "work"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, TaskInput{Title: "Medium", Category: "home"})
	require.NoError(t, err)

	tasks, err := svc.FilterTasks(ctx, " Pending ", "high", "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "High", tasks[0].Title)

	last := store.filters[len(store.filters)-1]
	assert.Equal(t, model.StatePending, last.State)
	assert.Nil(t, last.Category)

	_, err = svc.FilterTasks(ctx, "", "critical", "")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.FilterTasks(ctx, "", "", "garden")
	assert.ErrorIs(t, err, model.ErrValidation)

	tasks, err = svc.FilterTasks(ctx, "archivadas", "", "")
	assert.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskService_SearchTasks(t *testing.T) {
	svc := NewTaskService(newMemTaskStore())
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, TaskInput{Title: "abc123"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, TaskInput{Title: "zzz"})
	require.NoError(t, err)

	tasks, err := svc.SearchTasks(ctx, " ABC ")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "abc123", tasks[0].Title)
}
