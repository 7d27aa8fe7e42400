package cron

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/team-educhange/gibo-api/services/lockfile"
)

func TestSweepStaleLocksReleasesOldMarkers(t *testing.T) {
	dir := t.TempDir()
	locker := lockfile.NewFileLocker(dir)

	// An unreadable marker aged past the threshold, as left by a crash.
	path := filepath.Join(dir, "submission.lock")
	if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	manager := NewCronManager(nil, locker, 10*time.Minute)
	manager.SweepStaleLocks()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("stale marker not removed: stat err = %v", err)
	}
	// The lock must be acquirable again.
	if err := locker.TryAcquire("submission"); err != nil {
		t.Errorf("TryAcquire after sweep failed: %v", err)
	}
}

func TestSweepStaleLocksLeavesFreshMarkers(t *testing.T) {
	dir := t.TempDir()
	locker := lockfile.NewFileLocker(dir)

	if err := locker.TryAcquire("submission"); err != nil {
		t.Fatalf("TryAcquire failed: %v", err)
	}

	manager := NewCronManager(nil, locker, 10*time.Minute)
	manager.SweepStaleLocks()

	if _, err := os.Stat(filepath.Join(dir, "submission.lock")); err != nil {
		t.Errorf("fresh marker removed by sweep: %v", err)
	}
}
