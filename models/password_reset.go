package models

import "time"

// PasswordReset stores the hash of a one-time reset code sent by mail.
type PasswordReset struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint      `gorm:"not null;index"`
	CodeHash  string    `gorm:"size:128;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Used      bool      `gorm:"default:false"`
}
