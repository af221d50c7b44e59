package models

// Account represents a money-holding bucket with a cached running balance.
//
// CurrentAmount is derived state: after every transaction mutation it must
// equal DefaultValue plus the sum of all live transaction amounts referencing
// the account. It is recomputed by the account service, never written
// directly by handlers.
type Account struct {
	Base
	UserID        string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string `gorm:"not null" json:"name"`
	Icon          string `json:"icon"`
	Currency      string `gorm:"not null;default:'USD'" json:"currency"`
	DefaultValue  int64  `gorm:"type:bigint;not null;default:0" json:"default_value"`
	CurrentAmount int64  `gorm:"type:bigint;not null;default:0" json:"current_amount"`
	IsDefault     bool   `gorm:"default:false" json:"is_default"`
	DisplayOrder  int    `gorm:"default:0" json:"display_order"`

	// Relationships
	Transactions          []Transaction          `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
	RecurringTransactions []RecurringTransaction `gorm:"foreignKey:AccountID" json:"recurring_transactions,omitempty"`
}
