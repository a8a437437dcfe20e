package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"

	"todo-manager/internal/model"
	"todo-manager/internal/repository"
)

// ReminderStore is the persistence the reminder service needs.
type ReminderStore interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	ListByTask(ctx context.Context, taskID uint) ([]model.Reminder, error)
	ListDue(ctx context.Context, now time.Time) ([]model.Reminder, error)
	MarkNotified(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

// Notifier delivers a rendered message to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// ReminderService schedules reminders and builds human-readable notifications.
type ReminderService struct {
	tasks     TaskStore
	reminders ReminderStore
	prefs     PreferencesStore
	log       *slog.Logger
}

func NewReminderService(tasks TaskStore, reminders ReminderStore, prefs PreferencesStore, log *slog.Logger) *ReminderService {
	if log == nil {
		log = slog.Default()
	}
	return &ReminderService{tasks: tasks, reminders: reminders, prefs: prefs, log: log}
}

// AddReminder schedules a notification for a live task.
func (s *ReminderService) AddReminder(ctx context.Context, taskID uint, at time.Time) (*model.Reminder, error) {
	if at.IsZero() {
		return nil, fmt.Errorf("%w: reminder time is required", model.ErrValidation)
	}
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Deleted {
		return nil, repository.ErrTaskNotFound
	}

	reminder := model.Reminder{TaskID: task.ID, RemindAt: at.UTC().Truncate(time.Second)}
	if err := s.reminders.Create(ctx, &reminder); err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (s *ReminderService) ListReminders(ctx context.Context, taskID uint) ([]model.Reminder, error) {
	return s.reminders.ListByTask(ctx, taskID)
}

func (s *ReminderService) DeleteReminder(ctx context.Context, id uint) error {
	return s.reminders.Delete(ctx, id)
}

// DispatchDue sends every reminder whose time has come and marks it notified.
// Reminders that fail to send are retried on the next run.
func (s *ReminderService) DispatchDue(ctx context.Context, now time.Time, n Notifier) (int, error) {
	chatID, ok, err := s.deliveryChat(ctx)
	if err != nil || !ok {
		return 0, err
	}

	due, err := s.reminders.ListDue(ctx, now.UTC())
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, reminder := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		task, err := s.tasks.FindByID(ctx, reminder.TaskID)
		if errors.Is(err, repository.ErrTaskNotFound) {
			continue
		}
		if err != nil {
			return sent, err
		}
		if err := n.Notify(ctx, chatID, formatReminder(*task, reminder, now)); err != nil {
			s.log.Warn("send reminder", "reminder_id", reminder.ID, "task_id", task.ID, "err", err)
			continue
		}
		if err := s.reminders.MarkNotified(ctx, reminder.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// SendDailyDigest delivers DailySummary to the bound chat.
func (s *ReminderService) SendDailyDigest(ctx context.Context, now time.Time, n Notifier) error {
	chatID, ok, err := s.deliveryChat(ctx)
	if err != nil || !ok {
		return err
	}
	text, err := s.DailySummary(ctx, now)
	if err != nil {
		return err
	}
	return n.Notify(ctx, chatID, text)
}

func (s *ReminderService) deliveryChat(ctx context.Context) (int64, bool, error) {
	prefs, err := s.prefs.Get(ctx)
	if err != nil {
		return 0, false, err
	}
	if !prefs.NotificationsEnabled || prefs.ChatID == 0 {
		return 0, false, nil
	}
	return prefs.ChatID, true, nil
}

// DailySummary lists pending tasks by due date, then the favorites.
func (s *ReminderService) DailySummary(ctx context.Context, now time.Time) (string, error) {
	pending, err := s.tasks.Filter(ctx, model.TaskFilter{State: model.StatePending})
	if err != nil {
		return "", err
	}
	favorites, err := s.tasks.Favorites(ctx)
	if err != nil {
		return "", err
	}

	SortByDueDate(pending)

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	builder.WriteString("🔥 <b>Pending tasks</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing pending\n")
	} else {
		for _, task := range pending {
			builder.WriteString(FormatTask(task, now))
		}
	}

	builder.WriteString("\n⭐ <b>Favorites</b>\n")
	if len(favorites) == 0 {
		builder.WriteString("— no favorites\n")
	} else {
		for _, task := range favorites {
			builder.WriteString(fmt.Sprintf("⭐ #%d %s\n", task.ID, html.EscapeString(strings.TrimSpace(task.Title))))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// SortByDueDate orders tasks with a due date first (earliest first), then by ID.
func SortByDueDate(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.ID < b.ID
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		default:
			return a.ID < b.ID
		}
	})
}

// FormatTask renders one task as an HTML line block for Telegram.
func FormatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.Completed:
		icon = "✅"
	case task.DueDate != nil && isOverdue(*task.DueDate, now):
		icon = "⚠️"
	case task.DueDate != nil && daysUntil(*task.DueDate, now) <= 2:
		icon = "⏳"
	}

	sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, task.ID, html.EscapeString(strings.TrimSpace(task.Title))))
	if task.Favorite {
		sb.WriteString(" ⭐")
	}
	sb.WriteString(fmt.Sprintf("\n   %s", priorityLabel(task.Priority)))
	if task.Category != nil {
		sb.WriteString(fmt.Sprintf(" · %s", categoryLabel(*task.Category)))
	}

	if task.DueDate != nil {
		due := task.DueDate.Format("2006-01-02")
		switch {
		case task.Completed:
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s", due))
		case isOverdue(*task.DueDate, now):
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s — <b>overdue</b>", due))
		default:
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · %d day(s) left", due, daysUntil(*task.DueDate, now)))
		}
	}

	if desc := strings.TrimSpace(task.Description); desc != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(desc)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func formatReminder(task model.Task, reminder model.Reminder, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 <b>Reminder</b> (%s)\n", reminder.RemindAt.In(now.Location()).Format("2006-01-02 15:04")))
	sb.WriteString(FormatTask(task, now))
	return strings.TrimSpace(sb.String())
}

// isOverdue compares calendar days, so a task due today is not overdue.
func isOverdue(due, now time.Time) bool {
	return daysUntil(due, now) < 0
}

func daysUntil(due, now time.Time) int {
	today := model.CalendarDate(now)
	return int(model.CalendarDate(due).Sub(today).Hours() / 24)
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴 high"
	case model.PriorityLow:
		return "🔵 low"
	default:
		return "🟡 medium"
	}
}

func categoryLabel(c model.Category) string {
	switch c {
	case model.CategoryWork:
		return "💼 work"
	case model.CategoryHome:
		return "🏠 home"
	case model.CategoryStudy:
		return "🎓 study"
	default:
		return "🏷️ " + html.EscapeString(string(c))
	}
}
