package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"worktime/internal/model"
)

// TaskRepository handles CRUD for tasks, their time logs and history.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// TaskHistoryQuery selects tasks touched within [Start, End].
type TaskHistoryQuery struct {
	UserID string
	Start  time.Time
	End    time.Time
}

func orderedLogs(db *gorm.DB) *gorm.DB {
	return db.Order("started_at ASC, id ASC")
}

func orderedEvents(db *gorm.DB) *gorm.DB {
	return db.Order("timestamp ASC, id ASC")
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.Version == 0 {
		task.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("TimeLogs", orderedLogs).
		Preload("History", orderedEvents).
		Where("user_id = ? AND id = ?", userID, taskID).
		First(&task).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// Update writes the task back if its version is unchanged since it was loaded.
// Time logs with a zero ID are inserted, existing ones get their end updated.
// History entries are append-only, so only new ones are written.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Task{}).
			Where("id = ? AND user_id = ? AND version = ?", task.ID, task.UserID, task.Version).
			Updates(map[string]any{
				"title":        task.Title,
				"description":  task.Description,
				"status":       task.Status,
				"started_at":   task.StartedAt,
				"completed_at": task.CompletedAt,
				"version":      gorm.Expr("version + 1"),
				"updated_at":   now,
			})
		if res.Error != nil {
			return fmt.Errorf("update task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStaleWrite
		}

		for i := range task.TimeLogs {
			tl := &task.TimeLogs[i]
			if tl.ID == 0 {
				tl.TaskID = task.ID
				if err := tx.Create(tl).Error; err != nil {
					return fmt.Errorf("create time log: %w", err)
				}
				continue
			}
			if err := tx.Model(&model.TimeLog{}).Where("id = ?", tl.ID).Update("ended_at", tl.End).Error; err != nil {
				return fmt.Errorf("update time log: %w", err)
			}
		}

		for i := range task.History {
			ev := &task.History[i]
			if ev.ID != 0 {
				continue
			}
			ev.TaskID = task.ID
			if err := tx.Create(ev).Error; err != nil {
				return fmt.Errorf("append task history: %w", err)
			}
		}

		task.Version++
		task.UpdatedAt = now
		return nil
	})
}

// Delete removes a task together with its time logs and history.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Task{}).Where("user_id = ? AND id = ?", userID, taskID).Count(&count).Error; err != nil {
			return fmt.Errorf("find task: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TimeLog{}).Error; err != nil {
			return fmt.Errorf("delete time logs: %w", err)
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskEvent{}).Error; err != nil {
			return fmt.Errorf("delete task history: %w", err)
		}
		if err := tx.Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

// CompleteInProgress marks every in-progress task of the user completed at now,
// closes their open time logs and appends reason to their history.
// It returns the affected tasks as they were before the update (id, title).
func (r *TaskRepository) CompleteInProgress(ctx context.Context, userID, reason string, now time.Time) ([]model.Task, error) {
	var affected []model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "title").
			Where("user_id = ? AND status = ?", userID, model.TaskInProgress).
			Order("created_at ASC").
			Find(&affected).Error; err != nil {
			return fmt.Errorf("find running tasks: %w", err)
		}
		if len(affected) == 0 {
			return nil
		}

		ids := make([]string, 0, len(affected))
		for _, t := range affected {
			ids = append(ids, t.ID)
		}

		if err := tx.Model(&model.Task{}).
			Where("id IN ? AND status = ?", ids, model.TaskInProgress).
			Updates(map[string]any{
				"status":       model.TaskCompleted,
				"completed_at": now,
				"version":      gorm.Expr("version + 1"),
				"updated_at":   now,
			}).Error; err != nil {
			return fmt.Errorf("complete running tasks: %w", err)
		}

		if err := tx.Model(&model.TimeLog{}).
			Where("task_id IN ? AND ended_at IS NULL", ids).
			Update("ended_at", now).Error; err != nil {
			return fmt.Errorf("close time logs: %w", err)
		}

		events := make([]model.TaskEvent, 0, len(ids))
		for _, id := range ids {
			events = append(events, model.TaskEvent{TaskID: id, Action: reason, Timestamp: now})
		}
		if err := tx.Create(&events).Error; err != nil {
			return fmt.Errorf("append task history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// History returns tasks started or completed within the range, plus every
// unfinished task created on or before its end, most recently updated first.
func (r *TaskRepository) History(ctx context.Context, q TaskHistoryQuery) ([]model.Task, error) {
	start, end := q.Start.UTC(), q.End.UTC()

	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("TimeLogs", orderedLogs).
		Where("user_id = ?", q.UserID).
		Where(
			r.db.Where("started_at BETWEEN ? AND ?", start, end).
				Or("completed_at BETWEEN ? AND ?", start, end).
				Or("completed_at IS NULL AND created_at BETWEEN ? AND ?", start, end).
				Or("completed_at IS NULL AND created_at <= ?", end),
		).
		Order("updated_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("task history: %w", err)
	}
	return tasks, nil
}
