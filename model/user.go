package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a teacher account. Credits are the currency for feedback
// generation; the balance only changes inside the credit service's transaction.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	UserID    string         `gorm:"uniqueIndex;not null" json:"user_id"` // school-issued account id
	Name      string         `gorm:"not null" json:"name"`
	Credit    int            `gorm:"not null;default:0" json:"credit"`

	// Relationships
	Transactions []CreditTransaction `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}
