package domain

import "time" // Timestamps

// DefaultProjectTitle is used when a save carries no title.
const DefaultProjectTitle = "Untitled"

// Project Model
type Project struct {
	ID               uint             `gorm:"primaryKey"`        // Primary key
	UserID           uint             `gorm:"not null;index"`    // Foreign key to the owning User
	Title            string           `gorm:"size:200;not null"` // Project title
	Description      string           `gorm:"type:text"`         // Free-form description
	OriginalFilename string           `gorm:"size:255"`          // Name of the image the project started from
	ThumbnailPath    string           `gorm:"size:500"`          // Path of a rendered thumbnail
	ProjectData      string           `gorm:"type:longtext"`     // Serialized canvas/layer state (JSON)
	Width            *int             // Canvas width, nil for drafts that never got one
	Height           *int             // Canvas height, nil for drafts that never got one
	IsPublic         bool             `gorm:"not null;default:false"` // Inert metadata flag
	CreatedAt        time.Time        // Creation time
	UpdatedAt        time.Time        // Last update time
	History          []ProjectHistory `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Edit history ledger
	SavedImages      []SavedImage     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Exported images
}
