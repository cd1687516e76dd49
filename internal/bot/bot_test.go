package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktime/internal/model"
	"worktime/internal/repository"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

type fakeUsers map[string]*model.User

func (f fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) FindByTelegramChatID(_ context.Context, chatID int64) (*model.User, error) {
	for _, u := range f {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeDays map[string]*model.DayRecord

func (f fakeDays) FindOpen(_ context.Context, userID string) (*model.DayRecord, error) {
	if rec, ok := f[userID]; ok {
		return rec, nil
	}
	return nil, repository.ErrNotFound
}

func chatID(id int64) *int64 { return &id }

func command(chat int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chat, Type: "private"},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])},
		},
	}
}

func newTestBot(users fakeUsers, days fakeDays) (*Bot, *fakeSender) {
	s := &fakeSender{}
	return newBot(s, users, days, time.UTC, nil), s
}

func TestTasksForceCompleted(t *testing.T) {
	users := fakeUsers{
		"linked":   {ID: "linked", TelegramChatID: chatID(42)},
		"unlinked": {ID: "unlinked"},
	}
	b, sender := newTestBot(users, nil)
	ctx := context.Background()
	tasks := []model.Task{{Title: "Fix <b>bug</b>"}, {Title: "Write docs"}}

	require.NoError(t, b.TasksForceCompleted(ctx, "linked", "Automatically completed due to clock out", tasks))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.EqualValues(t, 42, msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "Fix &lt;b&gt;bug&lt;/b&gt;")
	assert.Contains(t, msg.Text, "Write docs")

	require.NoError(t, b.TasksForceCompleted(ctx, "unlinked", "x", tasks))
	require.NoError(t, b.TasksForceCompleted(ctx, "linked", "x", nil))
	assert.Len(t, sender.sent, 1)

	assert.ErrorIs(t, b.TasksForceCompleted(ctx, "ghost", "x", tasks), repository.ErrNotFound)
}

func TestDayAutoClosed(t *testing.T) {
	users := fakeUsers{"u": {ID: "u", TelegramChatID: chatID(7)}}
	b, sender := newTestBot(users, nil)
	sender.err = errors.New("blocked by user")

	out := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)
	rec := &model.DayRecord{DayIn: time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC), DayOut: &out}
	err := b.DayAutoClosed(context.Background(), "u", rec)
	assert.Error(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "01.03.2024")
	assert.Contains(t, sender.sent[0].Text, "day out set to 19:00")
}

func TestHandleMessage(t *testing.T) {
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	out := in.Add(2 * time.Hour)
	users := fakeUsers{
		"worker": {ID: "worker", TelegramChatID: chatID(100)},
		"idle":   {ID: "idle", TelegramChatID: chatID(200)},
	}
	days := fakeDays{
		"worker": {DayIn: in, ClockEntries: []model.ClockEntry{
			{ClockIn: in, ClockOut: &out},
			{ClockIn: in.Add(3 * time.Hour)},
		}},
	}
	b, sender := newTestBot(users, days)
	b.now = func() time.Time { return in.Add(4 * time.Hour) }
	ctx := context.Background()

	require.NoError(t, b.handleMessage(ctx, command(100, "/today")))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "09:00 - 11:00")
	assert.Contains(t, sender.sent[0].Text, "12:00 - now")
	assert.Contains(t, sender.sent[0].Text, "Clocked 3h 00m")

	require.NoError(t, b.handleMessage(ctx, command(200, "/today")))
	assert.Contains(t, sender.sent[1].Text, "No open day")

	require.NoError(t, b.handleMessage(ctx, command(300, "/today")))
	assert.Contains(t, sender.sent[2].Text, "<code>300</code>")
	assert.Contains(t, sender.sent[2].Text, "not linked")

	require.NoError(t, b.handleMessage(ctx, command(300, "/start")))
	assert.Contains(t, sender.sent[3].Text, "Your chat id is <code>300</code>")

	require.NoError(t, b.handleMessage(ctx, &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 300, Type: "private"}}))
	assert.Len(t, sender.sent, 5)
}

func TestStartWithoutPoller(t *testing.T) {
	b, _ := newTestBot(nil, nil)
	assert.Error(t, b.Start(context.Background()))
}
