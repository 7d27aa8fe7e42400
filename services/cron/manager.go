package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/team-educhange/gibo-api/model"
	"github.com/team-educhange/gibo-api/services/lockfile"
)

// StaleLockStore is the slice of the file-based lock backend the sweeper
// needs. The Redis backend expires locks by TTL on its own and does not
// implement it.
type StaleLockStore interface {
	Stale(maxAge time.Duration) ([]lockfile.StaleMarker, error)
	ForceRelease(name string) error
}

// CronManager manages all scheduled jobs
type CronManager struct {
	cron       *cron.Cron
	db         *gorm.DB
	locks      StaleLockStore
	staleAfter time.Duration
}

// NewCronManager creates a new cron manager. locks may be nil when the lock
// backend handles expiry itself; the sweep job is then skipped.
func NewCronManager(db *gorm.DB, locks StaleLockStore, staleAfter time.Duration) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:       c,
		db:         db,
		locks:      locks,
		staleAfter: staleAfter,
	}
}

// Start registers and starts all jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every minute: release lock markers left behind by crashed requests
	if m.locks != nil {
		_, err := m.cron.AddFunc("0 * * * * *", func() {
			m.SweepStaleLocks()
		})
		if err != nil {
			return err
		}
	}

	// 2. Daily at 2 AM: trim old sweep logs
	_, err := m.cron.AddFunc("0 0 2 * * *", func() {
		m.CleanupOldSweepLogs()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logSweepStart creates the running sweep record and returns it for updates
func (m *CronManager) logSweepStart() *model.LockSweepLog {
	entry := &model.LockSweepLog{
		StartedAt: time.Now(),
		Status:    "running",
		Metadata:  datatypes.JSON([]byte("{}")),
	}
	if m.db != nil {
		m.db.Create(entry)
	}
	return entry
}

// logSweepComplete marks the sweep record finished
func (m *CronManager) logSweepComplete(entry *model.LockSweepLog, inspected, released int) {
	now := time.Now()
	entry.CompletedAt = &now
	entry.Status = "completed"
	entry.Inspected = inspected
	entry.Released = released
	if m.db != nil {
		m.db.Save(entry)
	}
}

// logSweepError marks the sweep record failed
func (m *CronManager) logSweepError(entry *model.LockSweepLog, err error) {
	log.Printf("[CRON] Error in lock sweep: %v", err)

	now := time.Now()
	entry.CompletedAt = &now
	entry.Status = "failed"
	entry.ErrorMsg = err.Error()
	if m.db != nil {
		m.db.Save(entry)
	}
}
