package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-manager/internal/model"
	"todo-manager/internal/repository"
	"todo-manager/internal/service"
)

// Bot is the chat front end of the to-do list. It only talks to services.
type Bot struct {
	api         *tgbotapi.BotAPI
	taskSvc     *service.TaskService
	reminderSvc *service.ReminderService
	prefsSvc    *service.PreferencesService
	ownerID     int64
	log         *slog.Logger

	mu            sync.Mutex
	conversations map[int64]*conversationState
}

func New(token string, ownerID int64, taskSvc *service.TaskService, reminderSvc *service.ReminderService, prefsSvc *service.PreferencesService, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "bot")
	log.Info("bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:           api,
		taskSvc:       taskSvc,
		reminderSvc:   reminderSvc,
		prefsSvc:      prefsSvc,
		ownerID:       ownerID,
		log:           log,
		conversations: make(map[int64]*conversationState),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if !b.allowed(ctx, update.CallbackQuery.From) {
				continue
			}
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error("handle callback", "err", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() || !b.allowed(ctx, update.Message.From) {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error("handle message", "err", err)
			}
		}
	}

	return ctx.Err()
}

// Notify delivers scheduler output (reminders, digests) to a chat.
func (b *Bot) Notify(_ context.Context, chatID int64, text string) error {
	return b.sendText(chatID, text)
}

// allowed reports whether from may use the bot. Without a configured owner,
// the first account to write claims the bot and everyone else is ignored.
func (b *Bot) allowed(ctx context.Context, from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if b.ownerID != 0 {
		return from.ID == b.ownerID
	}

	prefs, err := b.prefsSvc.Get(ctx)
	if err != nil {
		b.log.Error("load preferences", "err", err)
		return false
	}
	switch prefs.ChatID {
	case from.ID:
		return true
	case 0:
		if err := b.prefsSvc.BindChat(ctx, from.ID); err != nil {
			b.log.Error("claim bot", "user", from.ID, "err", err)
			return false
		}
		b.log.Info("bot claimed", "user", from.ID)
		return true
	default:
		b.log.Warn("ignored update from stranger", "user", from.ID)
		return false
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		b.log.Info("command", "user", msg.From.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if isCancelInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not understand that. Use /add to create a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(chatID, helpText)
	case "add":
		return b.startAddConversation(msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "⏪ Input cancelled.")
	case "tasks":
		return b.sendTaskList(ctx, chatID)
	case "trash":
		return b.sendTrash(ctx, chatID)
	case "favorites":
		return b.sendFavorites(ctx, chatID)
	case "done":
		return b.withTaskID(ctx, chatID, args, b.completeTask)
	case "fav":
		return b.withTaskID(ctx, chatID, args, func(ctx context.Context, chatID int64, id uint) error {
			return b.favoriteTask(ctx, chatID, id, true)
		})
	case "unfav":
		return b.withTaskID(ctx, chatID, args, func(ctx context.Context, chatID int64, id uint) error {
			return b.favoriteTask(ctx, chatID, id, false)
		})
	case "delete":
		return b.withTaskID(ctx, chatID, args, b.deleteTask)
	case "restore":
		return b.withTaskID(ctx, chatID, args, b.restoreTask)
	case "purge":
		return b.withTaskID(ctx, chatID, args, b.askPurgeConfirmation)
	case "edit":
		return b.handleEdit(ctx, chatID, args)
	case "filter":
		return b.handleFilter(ctx, chatID, args)
	case "search":
		return b.handleSearch(ctx, chatID, args)
	case "remind":
		return b.handleRemind(ctx, chatID, args)
	case "reminders":
		return b.withTaskID(ctx, chatID, args, b.sendReminders)
	case "prefs":
		return b.handlePrefs(ctx, chatID, args)
	case "report":
		return b.handleReport(ctx, chatID)
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelAdd):
		return true, b.startAddConversation(msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelFavorites):
		return true, b.sendFavorites(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelTrash):
		return true, b.sendTrash(ctx, msg.Chat.ID)
	default:
		return false, nil
	}
}

// replyError turns a service error into a chat message. Validation problems
// are shown as-is; store failures are logged and reported.
func (b *Bot) replyError(chatID int64, action string, err error) error {
	switch {
	case errors.Is(err, model.ErrValidation):
		return b.sendText(chatID, "⚠️ "+escape(err.Error()))
	case errors.Is(err, repository.ErrTaskNotFound):
		return b.sendText(chatID, "Task not found.")
	default:
		b.log.Error(action, "err", err)
		return b.sendText(chatID, fmt.Sprintf("Could not %s: %s", action, escape(err.Error())))
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func escape(s string) string {
	return html.EscapeString(s)
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /add — create a task step by step\n" +
	"• /tasks — live tasks with buttons\n" +
	"• /favorites — favorite tasks\n" +
	"• /trash — deleted tasks (restore or purge)\n" +
	"• /done &lt;id&gt; — mark completed\n" +
	"• /fav &lt;id&gt;, /unfav &lt;id&gt; — toggle favorite\n" +
	"• /delete &lt;id&gt; — move to trash\n" +
	"• /restore &lt;id&gt; — bring back from trash\n" +
	"• /purge &lt;id&gt; — delete forever\n" +
	"• /edit &lt;id&gt; title=.. description=.. due=YYYY-MM-DD|none priority=.. category=..|none\n" +
	"• /filter state=completed|pending priority=low|medium|high category=work|home|study\n" +
	"• /search &lt;keyword&gt;\n" +
	"• /remind &lt;id&gt; YYYY-MM-DD HH:MM — schedule a reminder\n" +
	"• /reminders &lt;id&gt; — reminders of a task\n" +
	"• /prefs language=en|es theme=light|dark notifications=on|off\n" +
	"• /report — daily digest now\n" +
	"• /cancel — abort the current input"
