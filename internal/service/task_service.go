package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"worktime/internal/apperr"
	"worktime/internal/model"
	"worktime/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
}

// TaskPatch carries the fields of an update. Nil fields are kept.
type TaskPatch struct {
	Title       *string `validate:"omitempty,max=200"`
	Description *string `validate:"omitempty,max=2000"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store  *repository.Store
	clock  Clock
	policy DayPolicy
	log    *slog.Logger
}

func NewTaskService(store *repository.Store, clock Clock, policy DayPolicy, log *slog.Logger) *TaskService {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &TaskService{store: store, clock: clock, policy: policy, log: log}
}

func (s *TaskService) CreateTask(ctx context.Context, userID string, input TaskInput) (*model.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	task := model.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Status:      model.TaskPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	appendEvent(&task, actionCreated, now)

	if err := s.store.Tasks.Create(ctx, &task); err != nil {
		return nil, translate(ctx, s.log, "create task", userID, err)
	}
	return &task, nil
}

// UpdateTask merges the provided fields into the task.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, patch TaskPatch) (*model.Task, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.Validation("Title must not be empty.")
		}
		patch.Title = &title
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	task, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	appendEvent(task, actionUpdated, now)

	if err := s.store.Tasks.Update(ctx, task, now); err != nil {
		return nil, translate(ctx, s.log, "update task", userID, err)
	}
	return task, nil
}

// DeleteTask removes a task with its time logs and history.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	err := s.store.Tasks.Delete(ctx, userID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrTaskNotFound
	}
	if err != nil {
		return translate(ctx, s.log, "delete task", userID, err)
	}
	return nil
}

// UpdateTaskStatus moves a task along the status graph and keeps its time logs in step.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, userID, taskID string, status string) (*model.Task, error) {
	next := model.TaskStatus(status)
	if !next.Valid() {
		return nil, apperr.Validation("Invalid status %q, expected one of pending, in-progress, paused, completed.", status)
	}

	task, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if err := applyStatus(task, next, now); err != nil {
		return nil, err
	}
	if err := s.store.Tasks.Update(ctx, task, now); err != nil {
		return nil, translate(ctx, s.log, "update task status", userID, err)
	}

	s.log.InfoContext(ctx, "task status updated", "user_id", userID, "task_id", taskID, "status", status)
	return task, nil
}

// History summarises the tasks touched in [start, end]. Missing bounds default
// to the start of the current month and now.
func (s *TaskService) History(ctx context.Context, userID string, start, end *time.Time) ([]TaskSummary, error) {
	now := s.clock.Now().UTC()
	from := s.policy.MonthStart(now)
	to := now
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	if from.After(to) {
		return nil, apperr.Validation("startDate must not be after endDate.")
	}

	tasks, err := s.store.Tasks.History(ctx, repository.TaskHistoryQuery{UserID: userID, Start: from, End: to})
	if err != nil {
		return nil, translate(ctx, s.log, "task history", userID, err)
	}

	out := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, summarize(t))
	}
	return out, nil
}

func (s *TaskService) load(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.store.Tasks.FindByID(ctx, userID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrTaskNotFound
	}
	if err != nil {
		return nil, translate(ctx, s.log, "load task", userID, err)
	}
	return task, nil
}
