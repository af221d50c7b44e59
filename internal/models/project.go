package models

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Project groups tasks. Names are unique per user; deleting a project
// cascades to its tasks.
type Project struct {
	Base
	UserID       string        `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string        `gorm:"not null" json:"name"`
	Description  string        `json:"description"`
	Status       ProjectStatus `gorm:"not null;default:'active'" json:"status"`
	Icon         string        `json:"icon"`
	Color        string        `json:"color"`
	IsDefault    bool          `gorm:"default:false" json:"is_default"`
	DisplayOrder int           `gorm:"default:0" json:"display_order"`

	// Relationships
	Tasks []Task `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}
