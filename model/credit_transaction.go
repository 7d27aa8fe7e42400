package model

import (
	"time"

	"gorm.io/datatypes"
)

// CreditTransaction logs every balance change: who, how much, the balance
// after, and which service consumed it. Append-only.
type CreditTransaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Type         string         `gorm:"type:varchar(20);not null" json:"type"` // decrease, increase
	Amount       int            `gorm:"not null" json:"amount"`
	BalanceAfter int            `gorm:"not null" json:"balance_after"`
	ServiceID    string         `gorm:"type:varchar(100)" json:"service_id"`
	Details      datatypes.JSON `gorm:"type:jsonb" json:"details"`
}

// TableName specifies the table name for CreditTransaction
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
