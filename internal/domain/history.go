package domain

import (
	"time" // Timestamps

	"gorm.io/datatypes" // JSON column type
)

// History action types
const (
	ActionCreate = "create" // First save of a project
	ActionUpdate = "update" // Any later save
)

// ProjectHistory Model, append-only
type ProjectHistory struct {
	ID         uint           `gorm:"primaryKey"`       // Primary key
	ProjectID  uint           `gorm:"not null;index"`   // Foreign key to Project
	ActionType string         `gorm:"size:50;not null"` // Action tag
	ActionData datatypes.JSON `json:"action_data"`      // Action details
	CreatedAt  time.Time      `gorm:"index"`            // Time of the action
}

// TableName keeps the singular table name used by the editor schema
func (ProjectHistory) TableName() string {
	return "project_history"
}

// SavedImage Model, an exported image belonging to a project
type SavedImage struct {
	ID        uint      `gorm:"primaryKey"`        // Primary key
	ProjectID uint      `gorm:"not null;index"`    // Foreign key to Project
	FilePath  string    `gorm:"size:500;not null"` // Storage path or object key
	FileSize  int64     // Size in bytes
	Format    string    `gorm:"size:10"` // Image format tag (png, jpeg, ...)
	CreatedAt time.Time // Time of the export
}
