package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/team-educhange/gibo-api/model"
)

// SweepStaleLocks releases lock markers older than the stale threshold.
// A marker that old belongs to a request that crashed between acquire and
// release; left alone it would block every later submitter.
func (m *CronManager) SweepStaleLocks() {
	entry := m.logSweepStart()

	stale, err := m.locks.Stale(m.staleAfter)
	if err != nil {
		m.logSweepError(entry, fmt.Errorf("failed to scan lock markers: %w", err))
		return
	}

	if len(stale) == 0 {
		m.logSweepComplete(entry, 0, 0)
		return
	}

	released := 0
	for _, marker := range stale {
		age := time.Since(marker.AcquiredAt).Round(time.Second)
		log.Printf("[CRON] Releasing stale lock %q held by %s for %s", marker.Name, marker.Owner, age)

		if err := m.locks.ForceRelease(marker.Name); err != nil {
			log.Printf("[CRON] Failed to release stale lock %q: %v", marker.Name, err)
			continue
		}
		released++
	}

	m.logSweepComplete(entry, len(stale), released)
}

// CleanupOldSweepLogs trims sweep records older than 90 days
func (m *CronManager) CleanupOldSweepLogs() {
	if m.db == nil {
		return
	}

	cutoff := time.Now().Add(-90 * 24 * time.Hour)
	result := m.db.Where("created_at < ?", cutoff).Delete(&model.LockSweepLog{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean sweep logs: %v", result.Error)
		return
	}
	log.Printf("[CRON] Cleaned %d old sweep logs", result.RowsAffected)
}
