package models

// Category represents a transaction category.
// Names are unique per user; deleting a category reassigns its transactions
// and recurring templates to a fallback category, never leaving a dangling
// reference.
type Category struct {
	Base
	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string `gorm:"not null" json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	IsDefault bool   `gorm:"default:false" json:"is_default"`

	// Relationships
	Transactions          []Transaction          `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
	RecurringTransactions []RecurringTransaction `gorm:"foreignKey:CategoryID" json:"recurring_transactions,omitempty"`
}

// OtherCategoryName is the auto-created fallback category that absorbs
// references when a category is deleted without an explicit fallback.
const OtherCategoryName = "Other"
