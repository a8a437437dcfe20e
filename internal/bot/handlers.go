package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-manager/internal/model"
	"todo-manager/internal/service"
)

const (
	cbDonePrefix     = "done:"
	cbFavPrefix      = "fav:"
	cbUnfavPrefix    = "unfav:"
	cbDeletePrefix   = "delete:"
	cbRestorePrefix  = "restore:"
	cbPurgePrefix    = "purge:"
	cbPurgeOKPrefix  = "purgeok:"
	cbCancelCallback = "cancel"
)

type taskAction func(ctx context.Context, chatID int64, id uint) error

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.prefsSvc.BindChat(ctx, msg.Chat.ID); err != nil {
		return b.replyError(msg.Chat.ID, "remember this chat", err)
	}
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("👋 Hi, %s! Reminders will arrive in this chat.\n\n%s", escape(name), helpText))
}

func (b *Bot) withTaskID(ctx context.Context, chatID int64, args string, action taskAction) error {
	if args == "" {
		return b.sendText(chatID, "Give the task ID, for example: <code>/done 12</code>")
	}
	id, err := parseTaskID(args, "")
	if err != nil {
		return b.sendText(chatID, "The task ID must be a number.")
	}
	return action(ctx, chatID, id)
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, id uint) error {
	if err := b.taskSvc.CompleteTask(ctx, id); err != nil {
		return b.replyError(chatID, "complete the task", err)
	}
	b.log.Info("task completed", "task_id", id)
	return b.sendText(chatID, fmt.Sprintf("✅ Task #%d completed.", id))
}

func (b *Bot) favoriteTask(ctx context.Context, chatID int64, id uint, favorite bool) error {
	if err := b.taskSvc.FavoriteTask(ctx, id, favorite); err != nil {
		return b.replyError(chatID, "update the favorite flag", err)
	}
	if favorite {
		return b.sendText(chatID, fmt.Sprintf("⭐ Task #%d is a favorite.", id))
	}
	return b.sendText(chatID, fmt.Sprintf("☆ Task #%d is no longer a favorite.", id))
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, id uint) error {
	if err := b.taskSvc.DeleteTask(ctx, id); err != nil {
		return b.replyError(chatID, "delete the task", err)
	}
	b.log.Info("task deleted", "task_id", id)
	return b.sendText(chatID, fmt.Sprintf("🗑 Task #%d moved to trash. /restore %d brings it back.", id, id))
}

func (b *Bot) restoreTask(ctx context.Context, chatID int64, id uint) error {
	if err := b.taskSvc.RestoreTask(ctx, id); err != nil {
		return b.replyError(chatID, "restore the task", err)
	}
	b.log.Info("task restored", "task_id", id)
	return b.sendText(chatID, fmt.Sprintf("♻️ Task #%d restored.", id))
}

// askPurgeConfirmation guards the irreversible purge behind a second tap.
func (b *Bot) askPurgeConfirmation(ctx context.Context, chatID int64, id uint) error {
	task, err := b.taskSvc.GetTask(ctx, id)
	if err != nil {
		return b.replyError(chatID, "load the task", err)
	}
	text := fmt.Sprintf("Delete task «%s» (#%d) forever? This cannot be undone.", escape(shortTitle(task.Title, 40)), task.ID)
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Delete forever", fmt.Sprintf("%s%d", cbPurgeOKPrefix, task.ID)),
		tgbotapi.NewInlineKeyboardButtonData("↩️ Cancel", cbCancelCallback),
	))
	return b.sendWithReplyMarkup(chatID, text, markup)
}

func (b *Bot) purgeTask(ctx context.Context, chatID int64, id uint) error {
	if err := b.taskSvc.PurgeTask(ctx, id); err != nil {
		return b.replyError(chatID, "purge the task", err)
	}
	b.log.Info("task purged", "task_id", id)
	return b.sendText(chatID, fmt.Sprintf("❌ Task #%d deleted forever.", id))
}

func (b *Bot) handleEdit(ctx context.Context, chatID int64, args string) error {
	idPart, rest, _ := strings.Cut(args, " ")
	id, err := parseTaskID(idPart, "")
	if err != nil {
		return b.sendText(chatID, "Usage: <code>/edit 3 title=New title priority=high</code>")
	}
	changes, err := parseTaskChanges(parseKeyValues(rest))
	if err != nil {
		return b.replyError(chatID, "edit the task", err)
	}
	if err := b.taskSvc.UpdateTask(ctx, id, changes); err != nil {
		return b.replyError(chatID, "edit the task", err)
	}
	b.log.Info("task updated", "task_id", id)
	return b.sendText(chatID, fmt.Sprintf("✏️ Task #%d updated.", id))
}

func (b *Bot) handleFilter(ctx context.Context, chatID int64, args string) error {
	values := parseKeyValues(args)
	tasks, err := b.taskSvc.FilterTasks(ctx, values["state"], values["priority"], values["category"])
	if err != nil {
		return b.replyError(chatID, "filter tasks", err)
	}
	return b.sendRendered(chatID, renderTaskList("🔎 <b>Filtered tasks</b>", tasks, time.Now(), false))
}

func (b *Bot) handleSearch(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Usage: <code>/search keyword</code>")
	}
	tasks, err := b.taskSvc.SearchTasks(ctx, args)
	if err != nil {
		return b.replyError(chatID, "search tasks", err)
	}
	return b.sendRendered(chatID, renderTaskList(fmt.Sprintf("🔍 <b>Results for «%s»</b>", escape(args)), tasks, time.Now(), false))
}

func (b *Bot) handleRemind(ctx context.Context, chatID int64, args string) error {
	idPart, when, _ := strings.Cut(args, " ")
	id, err := parseTaskID(idPart, "")
	if err != nil {
		return b.sendText(chatID, "Usage: <code>/remind 3 2025-11-30 09:00</code>")
	}
	at, err := parseReminderTime(when, time.Local)
	if err != nil {
		return b.replyError(chatID, "schedule the reminder", err)
	}
	reminder, err := b.reminderSvc.AddReminder(ctx, id, at)
	if err != nil {
		return b.replyError(chatID, "schedule the reminder", err)
	}
	b.log.Info("reminder scheduled", "task_id", id, "reminder_id", reminder.ID, "at", reminder.RemindAt)
	return b.sendText(chatID, fmt.Sprintf("🔔 Reminder for task #%d at %s.", id, reminder.RemindAt.In(time.Local).Format("2006-01-02 15:04")))
}

func (b *Bot) sendReminders(ctx context.Context, chatID int64, id uint) error {
	reminders, err := b.reminderSvc.ListReminders(ctx, id)
	if err != nil {
		return b.replyError(chatID, "list reminders", err)
	}
	return b.sendText(chatID, renderReminders(id, reminders, time.Local))
}

func (b *Bot) handlePrefs(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		prefs, err := b.prefsSvc.Get(ctx)
		if err != nil {
			return b.replyError(chatID, "load preferences", err)
		}
		return b.sendText(chatID, renderPreferences(*prefs))
	}

	input, err := parsePreferencesInput(parseKeyValues(args))
	if err != nil {
		return b.replyError(chatID, "update preferences", err)
	}
	prefs, err := b.prefsSvc.Update(ctx, input)
	if err != nil {
		return b.replyError(chatID, "update preferences", err)
	}
	return b.sendText(chatID, renderPreferences(*prefs))
}

func (b *Bot) handleReport(ctx context.Context, chatID int64) error {
	text, err := b.reminderSvc.DailySummary(ctx, time.Now())
	if err != nil {
		return b.replyError(chatID, "build the digest", err)
	}
	return b.sendText(chatID, text)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64) error {
	tasks, err := b.taskSvc.ListTasks(ctx, false)
	if err != nil {
		return b.replyError(chatID, "list tasks", err)
	}
	return b.sendRendered(chatID, renderTaskList("📋 <b>Tasks</b>", tasks, time.Now(), false))
}

func (b *Bot) sendFavorites(ctx context.Context, chatID int64) error {
	tasks, err := b.taskSvc.ListFavorites(ctx)
	if err != nil {
		return b.replyError(chatID, "list favorites", err)
	}
	return b.sendRendered(chatID, renderTaskList("⭐ <b>Favorites</b>", tasks, time.Now(), false))
}

func (b *Bot) sendTrash(ctx context.Context, chatID int64) error {
	all, err := b.taskSvc.ListTasks(ctx, true)
	if err != nil {
		return b.replyError(chatID, "list deleted tasks", err)
	}
	deleted := make([]model.Task, 0, len(all))
	for _, task := range all {
		if task.Deleted {
			deleted = append(deleted, task)
		}
	}
	return b.sendRendered(chatID, renderTaskList("🗑 <b>Trash</b>", deleted, time.Now(), true))
}

func (b *Bot) sendRendered(chatID int64, view taskListView) error {
	if len(view.buttons) == 0 {
		return b.sendText(chatID, view.text)
	}
	return b.sendWithReplyMarkup(chatID, view.text, tgbotapi.NewInlineKeyboardMarkup(view.buttons...))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", "err", err)
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	b.log.Info("callback", "user", cb.From.ID, "data", data)

	actions := []struct {
		prefix string
		run    taskAction
	}{
		{cbDonePrefix, b.completeTask},
		{cbFavPrefix, func(ctx context.Context, chatID int64, id uint) error { return b.favoriteTask(ctx, chatID, id, true) }},
		{cbUnfavPrefix, func(ctx context.Context, chatID int64, id uint) error { return b.favoriteTask(ctx, chatID, id, false) }},
		{cbDeletePrefix, b.deleteTask},
		{cbRestorePrefix, b.restoreTask},
		{cbPurgePrefix, b.askPurgeConfirmation},
		{cbPurgeOKPrefix, b.purgeTask},
	}
	for _, a := range actions {
		if !strings.HasPrefix(data, a.prefix) {
			continue
		}
		id, err := parseTaskID(data, a.prefix)
		if err != nil {
			return nil
		}
		return a.run(ctx, chatID, id)
	}

	if data == cbCancelCallback {
		return b.sendText(chatID, "↩️ Cancelled.")
	}
	return nil
}

// parseTaskChanges maps /edit keys onto a partial update.
func parseTaskChanges(values map[string]string) (service.TaskChanges, error) {
	var changes service.TaskChanges
	if len(values) == 0 {
		return changes, fmt.Errorf("%w: nothing to change", model.ErrValidation)
	}
	for key, value := range values {
		v := value
		switch key {
		case "title":
			changes.Title = &v
		case "description", "desc":
			changes.Description = &v
		case "due":
			if strings.EqualFold(strings.TrimSpace(v), service.ClearToken) {
				changes.ClearDueDate = true
				continue
			}
			due, err := parseDate(v)
			if err != nil {
				return changes, err
			}
			changes.DueDate = &due
		case "priority":
			changes.Priority = &v
		case "category":
			changes.Category = &v
		default:
			return changes, fmt.Errorf("%w: unknown field %q", model.ErrValidation, key)
		}
	}
	return changes, nil
}

func parsePreferencesInput(values map[string]string) (service.PreferencesInput, error) {
	var input service.PreferencesInput
	for key, value := range values {
		v := value
		switch key {
		case "language", "lang":
			input.Language = &v
		case "theme":
			input.Theme = &v
		case "notifications":
			on, err := parseOnOff(v)
			if err != nil {
				return input, err
			}
			input.Notifications = &on
		default:
			return input, fmt.Errorf("%w: unknown preference %q", model.ErrValidation, key)
		}
	}
	return input, nil
}
