package model

import (
	"time"

	"gorm.io/gorm"
)

// Project is one feedback offering under a service: its prompt template and
// what a submission against it costs. The template carries a {content}
// placeholder that is replaced with the extracted submission text.
type Project struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ServiceName    string `gorm:"type:varchar(100);not null;uniqueIndex:idx_service_project" json:"service_name"`
	ProjectName    string `gorm:"type:varchar(100);not null;uniqueIndex:idx_service_project" json:"project_name"`
	Creator        string `gorm:"type:varchar(100);index" json:"creator"` // user id of the owning teacher
	Grade          string `gorm:"type:varchar(20)" json:"grade"`
	Subject        string `gorm:"type:varchar(50)" json:"subject"`
	PromptTemplate string `gorm:"type:text" json:"prompt_template"`
	CreditCost     int    `gorm:"not null;default:4" json:"credit_cost"`
	Active         bool   `gorm:"not null;default:true" json:"active"`
}
