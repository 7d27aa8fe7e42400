package lockfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTryAcquireMutualExclusion(t *testing.T) {
	dir := t.TempDir()
	first := NewFileLocker(dir)
	second := NewFileLocker(dir)

	if err := first.TryAcquire("submission"); err != nil {
		t.Fatalf("first TryAcquire failed: %v", err)
	}
	if err := second.TryAcquire("submission"); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("second TryAcquire = %v, want ErrLockHeld", err)
	}

	if err := first.Release("submission"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := second.TryAcquire("submission"); err != nil {
		t.Fatalf("TryAcquire after release failed: %v", err)
	}
}

func TestLocksAreIndependentByName(t *testing.T) {
	dir := t.TempDir()
	locker := NewFileLocker(dir)

	if err := locker.TryAcquire("submission"); err != nil {
		t.Fatalf("TryAcquire(submission) failed: %v", err)
	}
	if err := locker.TryAcquire("preview_slots"); err != nil {
		t.Fatalf("TryAcquire(preview_slots) failed: %v", err)
	}
}

func TestReleaseAbsentLock(t *testing.T) {
	locker := NewFileLocker(t.TempDir())

	if err := locker.Release("never_taken"); err != nil {
		t.Fatalf("Release of absent lock = %v, want nil", err)
	}
}

func TestAcquireWaitBudget(t *testing.T) {
	dir := t.TempDir()
	holder := NewFileLocker(dir)
	waiter := NewFileLocker(dir)
	waiter.RetryInterval = 10 * time.Millisecond

	if err := holder.TryAcquire("submission"); err != nil {
		t.Fatalf("TryAcquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := waiter.Acquire(ctx, "submission")
	if !errors.Is(err, ErrWaitBudgetExceeded) {
		t.Fatalf("Acquire under held lock = %v, want ErrWaitBudgetExceeded", err)
	}
}

func TestAcquireSucceedsAfterRelease(t *testing.T) {
	dir := t.TempDir()
	holder := NewFileLocker(dir)
	waiter := NewFileLocker(dir)
	waiter.RetryInterval = 5 * time.Millisecond

	if err := holder.TryAcquire("submission"); err != nil {
		t.Fatalf("TryAcquire failed: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		holder.Release("submission")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := waiter.Acquire(ctx, "submission"); err != nil {
		t.Fatalf("Acquire after release = %v, want nil", err)
	}
}

func TestStaleDetection(t *testing.T) {
	dir := t.TempDir()
	locker := NewFileLocker(dir)

	if err := locker.TryAcquire("submission"); err != nil {
		t.Fatalf("TryAcquire failed: %v", err)
	}

	// A fresh marker is not stale.
	stale, err := locker.Stale(time.Hour)
	if err != nil {
		t.Fatalf("Stale failed: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("fresh marker reported stale: %v", stale)
	}

	// With a zero grace period every marker is past the cutoff.
	time.Sleep(10 * time.Millisecond)
	stale, err = locker.Stale(0)
	if err != nil {
		t.Fatalf("Stale failed: %v", err)
	}
	if len(stale) != 1 || stale[0].Name != "submission" {
		t.Fatalf("Stale = %v, want one marker named submission", stale)
	}

	if err := locker.ForceRelease("submission"); err != nil {
		t.Fatalf("ForceRelease failed: %v", err)
	}
	if err := locker.TryAcquire("submission"); err != nil {
		t.Fatalf("TryAcquire after ForceRelease failed: %v", err)
	}
}

func TestStaleFallsBackToModTime(t *testing.T) {
	dir := t.TempDir()
	locker := NewFileLocker(dir)

	// A marker with unreadable metadata is aged by its mtime.
	path := filepath.Join(dir, "submission.lock")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	stale, err := locker.Stale(30 * time.Minute)
	if err != nil {
		t.Fatalf("Stale failed: %v", err)
	}
	if len(stale) != 1 {
		t.Fatalf("Stale = %v, want one marker", stale)
	}
}
