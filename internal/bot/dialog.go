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

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageDueDate
	stagePriority
	stageCategory
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

func (b *Bot) startAddConversation(msg *tgbotapi.Message) error {
	b.log.Info("start add conversation", "user", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what is the title?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageTitle:
		if err := model.ValidateTitle(text); err != nil {
			return b.sendWithReplyMarkup(chatID, "The title cannot be empty. Try again.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(chatID, "✏️ Add a short description (or press «Skip»).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(chatID, "⏰ Due date as <code>2025-11-30</code> (or «Skip»).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			due, err := parseDate(text)
			if err != nil {
				return b.sendWithReplyMarkup(chatID, "Cannot read that date. Use <code>2025-11-30</code> or «Skip».", skipKeyboard())
			}
			state.input.DueDate = &due
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "🚦 Priority?", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			if _, err := model.ParsePriority(text); err != nil {
				return b.sendWithReplyMarkup(chatID, "Pick low, medium or high.", priorityKeyboard())
			}
			state.input.Priority = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 Category?", categoryKeyboard())
	case stageCategory:
		if !isSkipInput(text) {
			if _, err := model.ParseCategory(text); err != nil {
				return b.sendWithReplyMarkup(chatID, "Pick work, home or study (or «Skip»).", categoryKeyboard())
			}
			state.input.Category = text
		}
		b.clearConversation(msg.From.ID)
		return b.finishTaskCreation(ctx, chatID, state.input)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "Dialog reset. Start again with /add.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, input service.TaskInput) error {
	task, err := b.taskSvc.CreateTask(ctx, input)
	if err != nil {
		return b.replyError(chatID, "save the task", err)
	}

	b.log.Info("task created", "task_id", task.ID, "priority", task.Priority)

	text := "✅ <b>Task saved</b>\n" + service.FormatTask(*task, time.Now())
	if err := b.sendText(chatID, strings.TrimSpace(text)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

func parseDate(text string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must look like 2025-11-30", model.ErrValidation)
	}
	return t, nil
}
