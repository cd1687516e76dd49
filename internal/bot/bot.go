// Package bot delivers attendance notifications over Telegram and answers a
// few read-only commands from linked chats.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"worktime/internal/model"
	"worktime/internal/repository"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type poller interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UserFinder resolves users and their Telegram chats.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error)
}

// DayFinder reads a user's open day.
type DayFinder interface {
	FindOpen(ctx context.Context, userID string) (*model.DayRecord, error)
}

// Bot aggregates the Telegram API with the user and day stores.
type Bot struct {
	api   sender
	poll  poller
	users UserFinder
	days  DayFinder
	loc   *time.Location
	log   *slog.Logger
	now   func() time.Time
}

func New(token string, users UserFinder, days DayFinder, loc *time.Location, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, users, days, loc, log)
	b.poll = api
	b.log.Info("bot authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(api sender, users UserFinder, days DayFinder, loc *time.Location, log *slog.Logger) *Bot {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bot{api: api, users: users, days: days, loc: loc, log: log, now: time.Now}
}

// TasksForceCompleted tells the user which running tasks were closed.
func (b *Bot) TasksForceCompleted(ctx context.Context, userID, reason string, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return b.sendToUser(ctx, userID, formatForceCompleted(reason, tasks))
}

// DayAutoClosed tells the user that a forgotten day was closed for them.
func (b *Bot) DayAutoClosed(ctx context.Context, userID string, rec *model.DayRecord) error {
	return b.sendToUser(ctx, userID, formatDayClosed(rec, b.loc))
}

func (b *Bot) sendToUser(ctx context.Context, userID, text string) error {
	user, err := b.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user %s: %w", userID, err)
	}
	if user.TelegramChatID == nil {
		return nil
	}
	return b.sendText(*user.TelegramChatID, text)
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.poll == nil {
		return errors.New("bot has no update source")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.poll.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.poll.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Warn("handle message", "chat_id", update.Message.Chat.ID, "err", err)
		}
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, helpText(msg.Chat.ID))
	}

	switch msg.Command() {
	case "today":
		return b.handleToday(ctx, msg.Chat.ID)
	default:
		return b.sendText(msg.Chat.ID, helpText(msg.Chat.ID))
	}
}

func (b *Bot) handleToday(ctx context.Context, chatID int64) error {
	user, err := b.users.FindByTelegramChatID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sendText(chatID, notLinkedText(chatID))
	}
	if err != nil {
		return err
	}

	rec, err := b.days.FindOpen(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sendText(chatID, "📭 No open day. Record a day in to start one.")
	}
	if err != nil {
		return err
	}
	return b.sendText(chatID, formatToday(rec, b.loc, b.now()))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}
