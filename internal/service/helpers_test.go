package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"worktime/internal/model"
	"worktime/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	closed    []string
	err       error
}

func (n *recordingNotifier) TasksForceCompleted(_ context.Context, _ string, reason string, tasks []model.Task) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, t := range tasks {
		n.completed = append(n.completed, reason+": "+t.Title)
	}
	return n.err
}

func (n *recordingNotifier) DayAutoClosed(_ context.Context, _ string, rec *model.DayRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, rec.ID)
	return n.err
}

type testEnv struct {
	db       *gorm.DB
	store    *repository.Store
	clock    *fakeClock
	notifier *recordingNotifier
	ledger   *LedgerService
	tasks    *TaskService
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })

	store := repository.NewStore(db)
	clock := newFakeClock(at(1, 9, 0))
	notifier := &recordingNotifier{}
	policy := DayPolicy{Location: time.UTC, CutoffHour: 19}

	return &testEnv{
		db:       db,
		store:    store,
		clock:    clock,
		notifier: notifier,
		ledger:   NewLedgerService(store, NewCoordinator(nil), notifier, clock, policy, nil),
		tasks:    NewTaskService(store, clock, policy, nil),
	}
}

func (e *testEnv) openDays(t *testing.T, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.DayRecord{}).
		Where("user_id = ? AND is_completed = ?", userID, false).
		Count(&n).Error)
	return n
}

func (e *testEnv) runningTask(t *testing.T, userID, title string) *model.Task {
	t.Helper()
	ctx := context.Background()
	task, err := e.tasks.CreateTask(ctx, userID, TaskInput{Title: title})
	require.NoError(t, err)
	task, err = e.tasks.UpdateTaskStatus(ctx, userID, task.ID, string(model.TaskInProgress))
	require.NoError(t, err)
	return task
}

func assertSameTime(t *testing.T, want time.Time, got *time.Time) {
	t.Helper()
	require.NotNil(t, got)
	require.True(t, want.Equal(*got), "want %s, got %s", want, *got)
}
