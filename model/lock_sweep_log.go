package model

import (
	"time"

	"gorm.io/datatypes"
)

// LockSweepLog records each run of the stale-lock sweeper: how many markers
// were inspected and which were force-released. A non-zero Released count
// means some process died while holding a lock and operators may want to look.
type LockSweepLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	StartedAt   time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Status      string         `gorm:"type:varchar(20);not null" json:"status"` // running, completed, failed
	Inspected   int            `json:"inspected"`
	Released    int            `json:"released"`
	ErrorMsg    string         `gorm:"type:text" json:"error_msg"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
}

// TableName specifies the table name for LockSweepLog
func (LockSweepLog) TableName() string {
	return "lock_sweep_logs"
}
