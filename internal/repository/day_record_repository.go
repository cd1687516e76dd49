package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"worktime/internal/model"
)

// DayRecordRepository persists attendance sessions and their clock entries.
type DayRecordRepository struct {
	db *gorm.DB
}

func NewDayRecordRepository(db *gorm.DB) *DayRecordRepository {
	return &DayRecordRepository{db: db}
}

// DayHistoryQuery filters attendance history. Nil bounds are open.
type DayHistoryQuery struct {
	UserID string
	Start  *time.Time
	End    *time.Time
	Offset int
	Limit  int
}

func orderedEntries(db *gorm.DB) *gorm.DB {
	return db.Order("clock_in ASC, id ASC")
}

// FindOpen returns the user's record with is_completed = false.
func (r *DayRecordRepository) FindOpen(ctx context.Context, userID string) (*model.DayRecord, error) {
	var rec model.DayRecord
	err := r.db.WithContext(ctx).
		Preload("ClockEntries", orderedEntries).
		Where("user_id = ? AND is_completed = ?", userID, false).
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// Create inserts a record with its clock entries. A second open record for
// the same user yields ErrDuplicate.
func (r *DayRecordRepository) Create(ctx context.Context, rec *model.DayRecord) error {
	if rec.Version == 0 {
		rec.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create day record: %w", err)
	}
	return nil
}

// Save writes an open record back if nobody changed it since it was loaded.
// New clock entries (zero ID) are inserted, existing ones get their clock out updated.
func (r *DayRecordRepository) Save(ctx context.Context, rec *model.DayRecord, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.DayRecord{}).
			Where("id = ? AND version = ? AND is_completed = ?", rec.ID, rec.Version, false).
			Updates(map[string]any{
				"day_out":      rec.DayOut,
				"is_completed": rec.IsCompleted,
				"version":      gorm.Expr("version + 1"),
				"updated_at":   now,
			})
		if res.Error != nil {
			return fmt.Errorf("update day record: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStaleWrite
		}

		for i := range rec.ClockEntries {
			entry := &rec.ClockEntries[i]
			if entry.ID == 0 {
				entry.DayRecordID = rec.ID
				if err := tx.Create(entry).Error; err != nil {
					return fmt.Errorf("create clock entry: %w", err)
				}
				continue
			}
			if err := tx.Model(&model.ClockEntry{}).
				Where("id = ?", entry.ID).
				Update("clock_out", entry.ClockOut).Error; err != nil {
				return fmt.Errorf("update clock entry: %w", err)
			}
		}

		rec.Version++
		rec.UpdatedAt = now
		return nil
	})
}

// ListStaleOpen returns open records whose day in is before the given instant.
func (r *DayRecordRepository) ListStaleOpen(ctx context.Context, before time.Time) ([]model.DayRecord, error) {
	var recs []model.DayRecord
	err := r.db.WithContext(ctx).
		Preload("ClockEntries", orderedEntries).
		Where("is_completed = ? AND day_in < ?", false, before.UTC()).
		Order("day_in ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list stale days: %w", err)
	}
	return recs, nil
}

// History returns one page of the user's records, newest first, with the total count.
func (r *DayRecordRepository) History(ctx context.Context, q DayHistoryQuery) ([]model.DayRecord, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", q.UserID)
		if q.Start != nil {
			db = db.Where("day_in >= ?", q.Start.UTC())
		}
		if q.End != nil {
			db = db.Where("day_in <= ?", q.End.UTC())
		}
		return db
	}

	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.DayRecord{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count day records: %w", err)
	}

	var recs []model.DayRecord
	err := db.Scopes(scope).
		Preload("User").
		Preload("ClockEntries", orderedEntries).
		Order("created_at DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list day records: %w", err)
	}
	return recs, total, nil
}
