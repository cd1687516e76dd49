package service

import (
	"fmt"
	"time"

	"worktime/internal/apperr"
	"worktime/internal/model"
)

const (
	actionCreated = "Created"
	actionUpdated = "Updated"
)

// transitions lists the statuses reachable from each status.
var transitions = map[model.TaskStatus][]model.TaskStatus{
	model.TaskPending:    {model.TaskInProgress},
	model.TaskInProgress: {model.TaskInProgress, model.TaskPaused, model.TaskCompleted},
	model.TaskPaused:     {model.TaskInProgress, model.TaskCompleted},
}

func canTransition(from, to model.TaskStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func closeOpenLog(task *model.Task, now time.Time) {
	if open := task.OpenLog(); open != nil {
		open.End = &now
	}
}

func appendEvent(task *model.Task, action string, now time.Time) {
	task.History = append(task.History, model.TaskEvent{TaskID: task.ID, Action: action, Timestamp: now})
}

// applyStatus moves task to status at now and records the transition.
func applyStatus(task *model.Task, status model.TaskStatus, now time.Time) error {
	if !status.Valid() {
		return apperr.Validation("Invalid status %q, expected one of pending, in-progress, paused, completed.", status)
	}
	if !canTransition(task.Status, status) {
		return apperr.Validation("Cannot change task status from %s to %s.", task.Status, status)
	}

	switch status {
	case model.TaskInProgress:
		if task.StartedAt == nil {
			task.StartedAt = &now
		}
		closeOpenLog(task, now)
		task.TimeLogs = append(task.TimeLogs, model.TimeLog{TaskID: task.ID, Start: now})
	case model.TaskPaused:
		closeOpenLog(task, now)
	case model.TaskCompleted:
		task.CompletedAt = &now
		closeOpenLog(task, now)
	}

	task.Status = status
	appendEvent(task, fmt.Sprintf("Status updated to %s", status), now)
	return nil
}

// formatDuration renders d as HH:MM, hours unbounded.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// TaskSummary is the reporting view of a task.
type TaskSummary struct {
	ID          string           `json:"id"`
	User        *UserSummary     `json:"user,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      model.TaskStatus `json:"status"`
	TimeLog     []model.TimeLog  `json:"timeLog"`
	Duration    string           `json:"duration"`
	IsRunning   bool             `json:"isRunning"`
	StartedAt   *time.Time       `json:"startedAt,omitempty"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

func summarize(task model.Task) TaskSummary {
	sum := TaskSummary{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		TimeLog:     task.TimeLogs,
		Duration:    "--",
		IsRunning:   task.CompletedAt == nil,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
	if sum.TimeLog == nil {
		sum.TimeLog = []model.TimeLog{}
	}
	if task.User != nil {
		u := toUserSummary(*task.User)
		sum.User = &u
	}
	if task.StartedAt != nil && task.CompletedAt != nil {
		sum.Duration = formatDuration(task.CompletedAt.Sub(*task.StartedAt))
	}
	return sum
}
