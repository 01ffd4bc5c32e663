package domain

import "time" // Timestamps

// User Model
type User struct {
	ID           uint      `gorm:"primaryKey"`                    // Primary key
	Username     string    `gorm:"size:80;uniqueIndex;not null"`  // Unique username
	Email        string    `gorm:"size:120;uniqueIndex;not null"` // Unique email
	PasswordHash string    `gorm:"size:255;not null" json:"-"`    // Salted one-way digest, never the raw password
	IsActive     bool      `gorm:"not null;default:true"`         // Inactive accounts cannot authenticate
	CreatedAt    time.Time // Creation time
	UpdatedAt    time.Time // Last update time
	Projects     []Project `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Owned projects, removed with the user
}
