package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayPolicy_StaleDayOut(t *testing.T) {
	cet := time.FixedZone("CET", 3600)

	utc := DayPolicy{Location: time.UTC, CutoffHour: 19}
	assert.True(t, at(1, 19, 0).Equal(utc.StaleDayOut(at(1, 9, 0))))

	local := DayPolicy{Location: cet, CutoffHour: 19, CutoffMinute: 30}
	// 19:30 CET is 18:30 UTC.
	assert.True(t, at(1, 18, 30).Equal(local.StaleDayOut(at(1, 9, 0))))

	assert.True(t, at(1, 20, 0).Equal(utc.StaleDayOut(at(1, 20, 0))))
}

func TestDayPolicy_MonthStart(t *testing.T) {
	p := DayPolicy{Location: time.UTC}
	assert.True(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Equal(p.MonthStart(at(17, 15, 4))))
}

func TestParseHHMM(t *testing.T) {
	h, m, err := ParseHHMM("07:45")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 45, m)

	for _, bad := range []string{"", "7", "24:00", "12:60", "aa:bb", "1:2:3"} {
		_, _, err := ParseHHMM(bad)
		assert.Error(t, err, bad)
	}
}

func TestSameUTCDate(t *testing.T) {
	assert.True(t, sameUTCDate(at(1, 0, 0), at(1, 23, 59)))
	assert.False(t, sameUTCDate(at(1, 23, 59), at(2, 0, 0)))

	plus2 := time.FixedZone("+02", 2*3600)
	// 01:00 at +02 is still the previous UTC day.
	assert.True(t, sameUTCDate(time.Date(2024, 3, 2, 1, 0, 0, 0, plus2), at(1, 12, 0)))
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, k.locks)
}

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("00:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 0 * * *", spec)

	_, err = buildDailySpec("25:00")
	assert.Error(t, err)
}

func TestSchedulerService_ScheduleDaily(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	id, err := s.ScheduleDaily("12:30", func() {})
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = s.ScheduleDaily("noon", func() {})
	assert.Error(t, err)
}
