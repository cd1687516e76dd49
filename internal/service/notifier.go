package service

import (
	"context"

	"worktime/internal/model"
)

// Notifier delivers attendance side effects to the user. Delivery is best effort.
type Notifier interface {
	TasksForceCompleted(ctx context.Context, userID, reason string, tasks []model.Task) error
	DayAutoClosed(ctx context.Context, userID string, rec *model.DayRecord) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) TasksForceCompleted(context.Context, string, string, []model.Task) error {
	return nil
}

func (NopNotifier) DayAutoClosed(context.Context, string, *model.DayRecord) error {
	return nil
}
