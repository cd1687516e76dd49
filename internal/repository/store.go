package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no row matches the owner and id.
	ErrNotFound = errors.New("record not found")
	// ErrStaleWrite is returned when a conditional write matched no row.
	ErrStaleWrite = errors.New("stale write")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db    *gorm.DB
	Users *UserRepository
	Days  *DayRecordRepository
	Tasks *TaskRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		Users: NewUserRepository(db),
		Days:  NewDayRecordRepository(db),
		Tasks: NewTaskRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction.
// Use only the Store passed to fn inside the callback.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
