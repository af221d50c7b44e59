package models

import "time"

// Frequency represents how often a recurring transaction fires
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// RecurringTransaction is a template that periodically materializes
// concrete transactions. Each processing pass that fires it creates one
// transaction and advances NextExecutionDate by one frequency unit from
// its previous value; once EndDate has passed the template is deactivated.
type RecurringTransaction struct {
	Base
	UserID            string     `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID         string     `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID        *string    `gorm:"type:uuid" json:"category_id,omitempty"`
	Amount            int64      `gorm:"type:bigint;not null" json:"amount"`
	Description       string     `json:"description"`
	Frequency         Frequency  `gorm:"not null" json:"frequency"`
	NextExecutionDate time.Time  `gorm:"not null;index" json:"next_execution_date"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`

	// Relationships
	Account  Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// NextAfter returns the execution date one frequency unit after the given
// date. The step is measured from the previous scheduled date, not from the
// processing time, so a delayed run never shifts the schedule.
func (r *RecurringTransaction) NextAfter(prev time.Time) time.Time {
	switch r.Frequency {
	case FrequencyDaily:
		return prev.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return prev.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return prev.AddDate(0, 1, 0)
	}
	return prev
}
