package model

import "time"

// DayRecord is one user's attendance session for a calendar day.
type DayRecord struct {
	ID           string       `gorm:"primaryKey;type:text" json:"id"`
	UserID       string       `gorm:"type:text;not null;index:idx_day_records_user_day_in,priority:1;uniqueIndex:idx_day_records_open_per_user,where:is_completed = false" json:"userId"`
	User         *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	DayIn        time.Time    `gorm:"not null;index:idx_day_records_user_day_in,priority:2" json:"dayIn"`
	DayOut       *time.Time   `json:"dayOut,omitempty"`
	ClockEntries []ClockEntry `gorm:"foreignKey:DayRecordID" json:"clockEntries"`
	IsCompleted  bool         `gorm:"not null;default:false" json:"isCompleted"`
	Version      int          `gorm:"not null;default:1" json:"-"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ClockEntry is one clock-in/clock-out pair inside a day record.
type ClockEntry struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	DayRecordID string     `gorm:"type:text;not null;index" json:"-"`
	ClockIn     time.Time  `gorm:"not null" json:"clockIn"`
	ClockOut    *time.Time `json:"clockOut,omitempty"`
}

// LastEntry returns the most recent clock entry, or nil when there is none.
func (d *DayRecord) LastEntry() *ClockEntry {
	if len(d.ClockEntries) == 0 {
		return nil
	}
	return &d.ClockEntries[len(d.ClockEntries)-1]
}
