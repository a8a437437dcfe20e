package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"todo-manager/internal/model"
	"todo-manager/internal/repository"
)

// memTaskStore keeps tasks in a map and mirrors the sqlite repository rules.
type memTaskStore struct {
	nextID  uint
	tasks   map[uint]*model.Task
	lastErr error
	created []model.Task
	patches map[uint]model.TaskPatch
	filters []model.TaskFilter
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[uint]*model.Task), patches: make(map[uint]model.TaskPatch)}
}

func (m *memTaskStore) Create(_ context.Context, task *model.Task) error {
	if m.lastErr != nil {
		return m.lastErr
	}
	if err := model.ValidateTitle(task.Title); err != nil {
		return err
	}
	m.nextID++
	task.ID = m.nextID
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	cp := *task
	m.tasks[cp.ID] = &cp
	m.created = append(m.created, cp)
	return nil
}

func (m *memTaskStore) sorted(keep func(model.Task) bool) []model.Task {
	out := []model.Task{}
	for _, t := range m.tasks {
		if keep(*t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memTaskStore) List(_ context.Context, includeDeleted bool) ([]model.Task, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	return m.sorted(func(t model.Task) bool { return includeDeleted || !t.Deleted }), nil
}

func (m *memTaskStore) FindByID(_ context.Context, id uint) (*model.Task, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTaskStore) Update(_ context.Context, id uint, patch model.TaskPatch) error {
	m.patches[id] = patch
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.ClearDueDate {
		t.DueDate = nil
	} else if patch.DueDate != nil {
		d := *patch.DueDate
		t.DueDate = &d
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.ClearCategory {
		t.Category = nil
	} else if patch.Category != nil {
		c := *patch.Category
		t.Category = &c
	}
	return nil
}

func (m *memTaskStore) mutate(id uint, fn func(*model.Task)) error {
	if m.lastErr != nil {
		return m.lastErr
	}
	if t, ok := m.tasks[id]; ok {
		fn(t)
	}
	return nil
}

func (m *memTaskStore) SoftDelete(_ context.Context, id uint) error {
	return m.mutate(id, func(t *model.Task) { t.Deleted = true })
}

func (m *memTaskStore) Restore(_ context.Context, id uint) error {
	return m.mutate(id, func(t *model.Task) { t.Deleted = false })
}

func (m *memTaskStore) Complete(_ context.Context, id uint) error {
	return m.mutate(id, func(t *model.Task) { t.Completed = true })
}

func (m *memTaskStore) SetFavorite(_ context.Context, id uint, favorite bool) error {
	return m.mutate(id, func(t *model.Task) { t.Favorite = favorite })
}

func (m *memTaskStore) Purge(_ context.Context, id uint) error {
	if m.lastErr != nil {
		return m.lastErr
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTaskStore) Filter(_ context.Context, f model.TaskFilter) ([]model.Task, error) {
	m.filters = append(m.filters, f)
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	switch f.State {
	case "", model.StateCompleted, model.StatePending:
	default:
		return []model.Task{}, nil
	}
	return m.sorted(func(t model.Task) bool {
		if t.Deleted {
			return false
		}
		if f.State == model.StateCompleted && !t.Completed || f.State == model.StatePending && t.Completed {
			return false
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			return false
		}
		if f.Category != nil && (t.Category == nil || *t.Category != *f.Category) {
			return false
		}
		return true
	}), nil
}

func (m *memTaskStore) Search(_ context.Context, keyword string) ([]model.Task, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	kw := strings.ToLower(keyword)
	return m.sorted(func(t model.Task) bool {
		return !t.Deleted && (strings.Contains(strings.ToLower(t.Title), kw) || strings.Contains(strings.ToLower(t.Description), kw))
	}), nil
}

func (m *memTaskStore) Favorites(_ context.Context) ([]model.Task, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	return m.sorted(func(t model.Task) bool { return t.Favorite && !t.Deleted }), nil
}

type memReminderStore struct {
	nextID    uint
	reminders map[uint]*model.Reminder
}

func newMemReminderStore() *memReminderStore {
	return &memReminderStore{reminders: make(map[uint]*model.Reminder)}
}

func (m *memReminderStore) Create(_ context.Context, r *model.Reminder) error {
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.reminders[r.ID] = &cp
	return nil
}

func (m *memReminderStore) list(keep func(model.Reminder) bool) []model.Reminder {
	out := []model.Reminder{}
	for _, r := range m.reminders {
		if keep(*r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memReminderStore) ListByTask(_ context.Context, taskID uint) ([]model.Reminder, error) {
	return m.list(func(r model.Reminder) bool { return r.TaskID == taskID }), nil
}

func (m *memReminderStore) ListDue(_ context.Context, now time.Time) ([]model.Reminder, error) {
	return m.list(func(r model.Reminder) bool { return !r.Notified && !r.RemindAt.After(now) }), nil
}

func (m *memReminderStore) MarkNotified(_ context.Context, id uint) error {
	if r, ok := m.reminders[id]; ok {
		r.Notified = true
	}
	return nil
}

func (m *memReminderStore) Delete(_ context.Context, id uint) error {
	delete(m.reminders, id)
	return nil
}

type memPrefsStore struct {
	prefs *model.Preferences
	saves int
}

func newMemPrefsStore() *memPrefsStore {
	p := model.DefaultPreferences()
	return &memPrefsStore{prefs: &p}
}

func (m *memPrefsStore) Get(_ context.Context) (*model.Preferences, error) {
	cp := *m.prefs
	return &cp, nil
}

func (m *memPrefsStore) Save(_ context.Context, prefs *model.Preferences) error {
	cp := *prefs
	m.prefs = &cp
	m.saves++
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type recordingNotifier struct {
	sent []sentMessage
	fail map[string]bool
}

func (n *recordingNotifier) Notify(_ context.Context, chatID int64, text string) error {
	for substr := range n.fail {
		if strings.Contains(text, substr) {
			return errors.New("telegram unavailable")
		}
	}
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return nil
}
