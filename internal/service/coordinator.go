package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"worktime/internal/model"
	"worktime/internal/repository"
)

// Coordinator applies the task side effects of attendance actions.
type Coordinator struct {
	log *slog.Logger
}

func NewCoordinator(log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{log: log}
}

// ForceCompleteInProgressTasks completes every running task of the user inside tx.
// No running tasks is not an error.
func (c *Coordinator) ForceCompleteInProgressTasks(ctx context.Context, tx *repository.Store, userID, reason string, now time.Time) ([]model.Task, error) {
	tasks, err := tx.Tasks.CompleteInProgress(ctx, userID, reason, now)
	if err != nil {
		return nil, fmt.Errorf("force complete tasks: %w", err)
	}
	if len(tasks) > 0 {
		c.log.InfoContext(ctx, "force completed tasks", "user_id", userID, "count", len(tasks), "reason", reason)
	}
	return tasks, nil
}
