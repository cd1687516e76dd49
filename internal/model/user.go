package model

import "time"

// User is an account that owns day records and tasks.
type User struct {
	ID             string    `gorm:"primaryKey;type:text" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	Mobile         int64     `json:"mobile"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	IsActive       bool      `gorm:"default:true" json:"isActive"`
	TelegramChatID *int64    `json:"telegramChatId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
