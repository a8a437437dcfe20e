package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-manager/internal/model"
	"todo-manager/internal/service"
)

const (
	btnSkip            = "⏭️ Skip"
	btnCancelDialog    = "⏪ Cancel input"
	menuLabelAdd       = "➕ New task"
	menuLabelTasks     = "📋 Tasks"
	menuLabelFavorites = "⭐ Favorites"
	menuLabelTrash     = "🗑 Trash"

	// maxListed keeps a rendered list well below Telegram's 4096 character limit.
	maxListed = 25
)

type taskListView struct {
	text    string
	buttons [][]tgbotapi.InlineKeyboardButton
}

// renderTaskList renders tasks with one row of action buttons per task.
// Trash rows offer restore and purge instead of the usual actions.
func renderTaskList(header string, tasks []model.Task, now time.Time, trash bool) taskListView {
	if len(tasks) == 0 {
		return taskListView{text: header + "\n— empty"}
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, task := range tasks {
		if i == maxListed {
			sb.WriteString(fmt.Sprintf("…and %d more. Narrow it down with /filter or /search.\n", len(tasks)-maxListed))
			break
		}
		sb.WriteString(service.FormatTask(task, now))
		buttons = append(buttons, taskButtons(task, trash))
	}

	return taskListView{text: strings.TrimSpace(sb.String()), buttons: buttons}
}

func taskButtons(task model.Task, trash bool) []tgbotapi.InlineKeyboardButton {
	id := task.ID
	if trash {
		return tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("♻️ #%d · %s", id, shortTitle(task.Title, 18)), fmt.Sprintf("%s%d", cbRestorePrefix, id)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Purge", fmt.Sprintf("%s%d", cbPurgePrefix, id)),
		)
	}

	var row []tgbotapi.InlineKeyboardButton
	if task.Completed {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✔️ #%d · %s", id, shortTitle(task.Title, 18)), fmt.Sprintf("%s%d", cbDonePrefix, id)))
	} else {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", id, shortTitle(task.Title, 18)), fmt.Sprintf("%s%d", cbDonePrefix, id)))
	}
	if task.Favorite {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("☆", fmt.Sprintf("%s%d", cbUnfavPrefix, id)))
	} else {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⭐", fmt.Sprintf("%s%d", cbFavPrefix, id)))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, id)))
	return row
}

func renderReminders(taskID uint, reminders []model.Reminder, loc *time.Location) string {
	if len(reminders) == 0 {
		return fmt.Sprintf("No reminders for task #%d. Add one with <code>/remind %d 2025-11-30 09:00</code>.", taskID, taskID)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 <b>Reminders for #%d</b>\n", taskID))
	for _, r := range reminders {
		status := "pending"
		if r.Notified {
			status = "sent"
		}
		sb.WriteString(fmt.Sprintf("• %s — %s\n", r.RemindAt.In(loc).Format("2006-01-02 15:04"), status))
	}
	return strings.TrimSpace(sb.String())
}

func renderPreferences(p model.Preferences) string {
	notifications := "off"
	if p.NotificationsEnabled {
		notifications = "on"
	}
	chat := "not bound (send /start)"
	if p.ChatID != 0 {
		chat = "bound"
	}
	return fmt.Sprintf("⚙️ <b>Preferences</b>\n• language: %s\n• theme: %s\n• notifications: %s\n• chat: %s",
		escape(p.Language), escape(p.Theme), notifications, chat)
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(data, prefix))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// parseKeyValues reads "key=value key2=several words" into a map. Words
// without '=' continue the previous value; keys are lower-cased.
func parseKeyValues(args string) map[string]string {
	values := make(map[string]string)
	var key string
	for _, word := range strings.Fields(args) {
		if k, v, ok := strings.Cut(word, "="); ok && k != "" {
			key = strings.ToLower(k)
			values[key] = v
			continue
		}
		if key != "" {
			values[key] = strings.TrimSpace(values[key] + " " + word)
		}
	}
	return values
}

func parseReminderTime(text string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", strings.Join(strings.Fields(text), " "), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time must look like 2025-11-30 09:00", model.ErrValidation)
	}
	return t, nil
}

func parseOnOff(text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: use on or off", model.ErrValidation)
	}
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelAdd),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelFavorites),
			tgbotapi.NewKeyboardButton(menuLabelTrash),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkip)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(string(model.PriorityLow)),
			tgbotapi.NewKeyboardButton(string(model.PriorityMedium)),
			tgbotapi.NewKeyboardButton(string(model.PriorityHigh)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(string(model.CategoryWork)),
			tgbotapi.NewKeyboardButton(string(model.CategoryHome)),
			tgbotapi.NewKeyboardButton(string(model.CategoryStudy)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
