package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"worktime/internal/apperr"
	"worktime/internal/model"
	"worktime/internal/repository"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// DayHistoryParams selects one page of attendance history.
type DayHistoryParams struct {
	Page      int
	Limit     int
	StartDate *time.Time
	EndDate   *time.Time
}

// DayHistory is one page of attendance records.
type DayHistory struct {
	Records      []model.DayRecord `json:"records"`
	TotalRecords int64             `json:"totalRecords"`
}

// LedgerService owns the day record of each user.
type LedgerService struct {
	store       *repository.Store
	coordinator *Coordinator
	notifier    Notifier
	clock       Clock
	policy      DayPolicy
	locks       *keyedMutex
	log         *slog.Logger
}

func NewLedgerService(store *repository.Store, coordinator *Coordinator, notifier Notifier, clock Clock, policy DayPolicy, log *slog.Logger) *LedgerService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &LedgerService{
		store:       store,
		coordinator: coordinator,
		notifier:    notifier,
		clock:       clock,
		policy:      policy,
		locks:       newKeyedMutex(),
		log:         log,
	}
}

// RecordAttendance dispatches an attendance action by name.
func (s *LedgerService) RecordAttendance(ctx context.Context, userID, action string) (*model.DayRecord, error) {
	switch action {
	case ActionDayIn:
		return s.RecordDayIn(ctx, userID)
	case ActionDayOut:
		return s.RecordDayOut(ctx, userID)
	case ActionClockIn:
		return s.RecordClockIn(ctx, userID)
	case ActionClockOut:
		return s.RecordClockOut(ctx, userID)
	default:
		return nil, apperr.Validation("Invalid action %q, expected one of dayIn, dayOut, clockIn, clockOut.", action)
	}
}

// RecordDayIn opens a new day. An open record from an earlier date is closed first.
func (s *LedgerService) RecordDayIn(ctx context.Context, userID string) (*model.DayRecord, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.clock.Now().UTC()
	var rec, closed *model.DayRecord
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		open, err := tx.Days.FindOpen(ctx, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return err
		case sameUTCDate(open.DayIn, now):
			return apperr.ErrAlreadyCheckedIn
		default:
			applyDayOut(open, s.policy.StaleDayOut(open.DayIn))
			if err := tx.Days.Save(ctx, open, now); err != nil {
				return err
			}
			closed = open
		}

		rec = newDayRecord(userID, now)
		return tx.Days.Create(ctx, rec)
	})
	if err != nil {
		return nil, s.fail(ctx, "day in", userID, err)
	}

	if closed != nil {
		s.log.InfoContext(ctx, "closed stale day", "user_id", userID, "day_id", closed.ID, "day_out", closed.DayOut)
		s.notify(ctx, userID, func(ctx context.Context) error {
			return s.notifier.DayAutoClosed(ctx, userID, closed)
		})
	}
	s.log.InfoContext(ctx, "day in", "user_id", userID, "day_id", rec.ID)
	return rec, nil
}

// RecordClockIn starts a new clock entry in the open day.
func (s *LedgerService) RecordClockIn(ctx context.Context, userID string) (*model.DayRecord, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.clock.Now().UTC()
	var rec *model.DayRecord
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		rec, err = s.findOpen(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := applyClockIn(rec, now); err != nil {
			return err
		}
		return tx.Days.Save(ctx, rec, now)
	})
	if err != nil {
		return nil, s.fail(ctx, "clock in", userID, err)
	}
	return rec, nil
}

// RecordClockOut completes running tasks and closes the open clock entry.
func (s *LedgerService) RecordClockOut(ctx context.Context, userID string) (*model.DayRecord, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.clock.Now().UTC()
	var rec *model.DayRecord
	var completed []model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		rec, err = s.findOpen(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := checkClockOut(rec); err != nil {
			return err
		}
		completed, err = s.coordinator.ForceCompleteInProgressTasks(ctx, tx, userID, ReasonClockOut, now)
		if err != nil {
			return err
		}
		if err := applyClockOut(rec, now); err != nil {
			return err
		}
		return tx.Days.Save(ctx, rec, now)
	})
	if err != nil {
		return nil, s.fail(ctx, "clock out", userID, err)
	}

	s.notifyCompleted(ctx, userID, ReasonClockOut, completed)
	return rec, nil
}

// RecordDayOut completes running tasks and closes the open day.
func (s *LedgerService) RecordDayOut(ctx context.Context, userID string) (*model.DayRecord, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.clock.Now().UTC()
	var rec *model.DayRecord
	var completed []model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		rec, err = s.findOpen(ctx, tx, userID)
		if err != nil {
			return err
		}
		completed, err = s.coordinator.ForceCompleteInProgressTasks(ctx, tx, userID, ReasonDayOut, now)
		if err != nil {
			return err
		}
		applyDayOut(rec, now)
		return tx.Days.Save(ctx, rec, now)
	})
	if err != nil {
		return nil, s.fail(ctx, "day out", userID, err)
	}

	s.log.InfoContext(ctx, "day out", "user_id", userID, "day_id", rec.ID)
	s.notifyCompleted(ctx, userID, ReasonDayOut, completed)
	return rec, nil
}

// CloseStaleDays closes every open record from a UTC date before today's.
// Running tasks are left alone. It returns the number of records closed.
func (s *LedgerService) CloseStaleDays(ctx context.Context) (int, error) {
	now := s.clock.Now().UTC()
	stale, err := s.store.Days.ListStaleOpen(ctx, utcDate(now))
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range stale {
		rec := &stale[i]
		if err := s.closeStale(ctx, rec, now); err != nil {
			if errors.Is(err, repository.ErrStaleWrite) {
				s.log.InfoContext(ctx, "stale day changed concurrently, skipped", "user_id", rec.UserID, "day_id", rec.ID)
				continue
			}
			return closed, fmt.Errorf("close day %s: %w", rec.ID, err)
		}
		closed++
		s.notify(ctx, rec.UserID, func(ctx context.Context) error {
			return s.notifier.DayAutoClosed(ctx, rec.UserID, rec)
		})
	}

	if closed > 0 {
		s.log.InfoContext(ctx, "closed stale days", "count", closed)
	}
	return closed, nil
}

func (s *LedgerService) closeStale(ctx context.Context, rec *model.DayRecord, now time.Time) error {
	unlock := s.locks.Lock(rec.UserID)
	defer unlock()

	applyDayOut(rec, s.policy.StaleDayOut(rec.DayIn))
	return s.store.Days.Save(ctx, rec, now)
}

// History returns one page of the user's attendance records, newest first.
func (s *LedgerService) History(ctx context.Context, userID string, p DayHistoryParams) (*DayHistory, error) {
	page, limit := normalizePage(p.Page, p.Limit)
	if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
		return nil, apperr.Validation("startDate must not be after endDate.")
	}

	recs, total, err := s.store.Days.History(ctx, repository.DayHistoryQuery{
		UserID: userID,
		Start:  p.StartDate,
		End:    p.EndDate,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, s.fail(ctx, "day history", userID, err)
	}
	if recs == nil {
		recs = []model.DayRecord{}
	}
	return &DayHistory{Records: recs, TotalRecords: total}, nil
}

func (s *LedgerService) findOpen(ctx context.Context, tx *repository.Store, userID string) (*model.DayRecord, error) {
	rec, err := tx.Days.FindOpen(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrNoActiveDay
	}
	return rec, err
}

func (s *LedgerService) notifyCompleted(ctx context.Context, userID, reason string, tasks []model.Task) {
	if len(tasks) == 0 {
		return
	}
	s.notify(ctx, userID, func(ctx context.Context) error {
		return s.notifier.TasksForceCompleted(ctx, userID, reason, tasks)
	})
}

func (s *LedgerService) notify(ctx context.Context, userID string, send func(context.Context) error) {
	if err := send(ctx); err != nil {
		s.log.WarnContext(ctx, "notification failed", "user_id", userID, "err", err)
	}
}

func (s *LedgerService) fail(ctx context.Context, op, userID string, err error) error {
	return translate(ctx, s.log, op, userID, err)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// translate maps repository failures onto client facing errors.
func translate(ctx context.Context, log *slog.Logger, op, userID string, err error) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrStaleWrite), errors.Is(err, repository.ErrDuplicate):
		log.WarnContext(ctx, "write conflict", "op", op, "user_id", userID, "err", err)
		return apperr.ErrConflict
	default:
		log.ErrorContext(ctx, op+" failed", "user_id", userID, "err", err)
		return apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}
}
