package model

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskPaused     TaskStatus = "paused"
	TaskCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskPaused, TaskCompleted:
		return true
	}
	return false
}

// Task is a unit of work with time accounting and an audit trail.
type Task struct {
	ID          string      `gorm:"primaryKey;type:text" json:"id"`
	UserID      string      `gorm:"type:text;not null;index:idx_tasks_user_status,priority:1" json:"userId"`
	User        *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title       string      `gorm:"not null" json:"title"`
	Description string      `json:"description"`
	Status      TaskStatus  `gorm:"type:text;not null;default:pending;index:idx_tasks_user_status,priority:2" json:"status"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	TimeLogs    []TimeLog   `gorm:"foreignKey:TaskID" json:"timeLogs"`
	History     []TaskEvent `gorm:"foreignKey:TaskID" json:"history"`
	Version     int         `gorm:"not null;default:1" json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// TimeLog is one active work segment of a task.
type TimeLog struct {
	ID     uint       `gorm:"primaryKey" json:"-"`
	TaskID string     `gorm:"type:text;not null;index" json:"-"`
	Start  time.Time  `gorm:"column:started_at;not null" json:"start"`
	End    *time.Time `gorm:"column:ended_at" json:"end,omitempty"`
}

// TaskEvent is an append-only history entry.
type TaskEvent struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	TaskID    string    `gorm:"type:text;not null;index" json:"-"`
	Action    string    `gorm:"not null" json:"action"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

// TableName keeps the history table name readable.
func (TaskEvent) TableName() string {
	return "task_history"
}

// OpenLog returns the trailing time log when it has no end, or nil.
func (t *Task) OpenLog() *TimeLog {
	if len(t.TimeLogs) == 0 {
		return nil
	}
	last := &t.TimeLogs[len(t.TimeLogs)-1]
	if last.End != nil {
		return nil
	}
	return last
}
