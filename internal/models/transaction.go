package models

import "time"

// Transaction represents a financial transaction in the system.
// Amount is signed: positive is income, negative is expense, zero is
// rejected at validation time.
type Transaction struct {
	Base
	UserID      string    `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string    `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID  *string   `gorm:"type:uuid" json:"category_id,omitempty"`
	Amount      int64     `gorm:"type:bigint;not null" json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	IsRecurring bool      `gorm:"default:false" json:"is_recurring"`

	// Back-reference to the recurring template that generated this
	// transaction, when IsRecurring is true.
	RecurringTransactionID *string `gorm:"type:uuid" json:"recurring_transaction_id,omitempty"`

	// Relationships
	Account              Account               `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category             *Category             `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	RecurringTransaction *RecurringTransaction `gorm:"foreignKey:RecurringTransactionID" json:"recurring_transaction,omitempty"`
}
