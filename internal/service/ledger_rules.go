package service

import (
	"time"

	"github.com/google/uuid"

	"worktime/internal/apperr"
	"worktime/internal/model"
)

// Attendance actions accepted by RecordAttendance.
const (
	ActionDayIn    = "dayIn"
	ActionDayOut   = "dayOut"
	ActionClockIn  = "clockIn"
	ActionClockOut = "clockOut"
)

// Reasons written to task history by the coordinator.
const (
	ReasonClockOut = "Automatically completed due to clock out"
	ReasonDayOut   = "Automatically completed due to day out"
)

func newDayRecord(userID string, now time.Time) *model.DayRecord {
	return &model.DayRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		DayIn:        now,
		ClockEntries: []model.ClockEntry{{ClockIn: now}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func hasOpenEntry(rec *model.DayRecord) bool {
	last := rec.LastEntry()
	return last != nil && last.ClockOut == nil
}

func applyClockIn(rec *model.DayRecord, now time.Time) error {
	if hasOpenEntry(rec) {
		return apperr.ErrMustClockOutFirst
	}
	rec.ClockEntries = append(rec.ClockEntries, model.ClockEntry{DayRecordID: rec.ID, ClockIn: now})
	return nil
}

func checkClockOut(rec *model.DayRecord) error {
	if !hasOpenEntry(rec) {
		return apperr.ErrMustClockInFirst
	}
	return nil
}

func applyClockOut(rec *model.DayRecord, now time.Time) error {
	if err := checkClockOut(rec); err != nil {
		return err
	}
	rec.LastEntry().ClockOut = &now
	return nil
}

// applyDayOut closes the record. An open clock entry is left as is.
func applyDayOut(rec *model.DayRecord, now time.Time) {
	rec.DayOut = &now
	rec.IsCompleted = true
}
