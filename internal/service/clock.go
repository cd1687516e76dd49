package service

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// DayPolicy holds the calendar rules for attendance.
type DayPolicy struct {
	Location     *time.Location
	CutoffHour   int
	CutoffMinute int
}

// DefaultDayPolicy closes stale days at 19:00 local time.
func DefaultDayPolicy() DayPolicy {
	return DayPolicy{Location: time.Local, CutoffHour: 19}
}

func (p DayPolicy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// StaleDayOut returns the day out assigned to a record that was never closed:
// the cutoff time on the record's UTC date, never earlier than its day in.
func (p DayPolicy) StaleDayOut(dayIn time.Time) time.Time {
	d := dayIn.UTC()
	out := time.Date(d.Year(), d.Month(), d.Day(), p.CutoffHour, p.CutoffMinute, 0, 0, p.location()).UTC()
	if out.Before(dayIn) {
		return dayIn.UTC()
	}
	return out
}

// MonthStart returns midnight of the first day of now's month in the policy location.
func (p DayPolicy) MonthStart(now time.Time) time.Time {
	local := now.In(p.location())
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, p.location())
}

// ParseHHMM parses a wall clock time such as "19:00".
func ParseHHMM(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func utcDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func sameUTCDate(a, b time.Time) bool {
	return utcDate(a).Equal(utcDate(b))
}

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
