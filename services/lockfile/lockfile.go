// Package lockfile implements an advisory lock built on atomic create-if-absent
// marker files in a shared directory. Multiple API processes serving the same
// school coordinate through these markers; there is no dedicated lock service.
package lockfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrLockHeld is returned by TryAcquire when the marker already exists
	ErrLockHeld = errors.New("lock is held by another process")
	// ErrWaitBudgetExceeded is returned by Acquire when the wait deadline passes
	ErrWaitBudgetExceeded = errors.New("lock wait budget exceeded")
)

// DefaultRetryInterval is the polling interval between acquisition attempts
const DefaultRetryInterval = 100 * time.Millisecond

// marker is the JSON body written into a lock file. The owner token and
// timestamp exist so the sweeper can tell a stale marker from a live one.
type marker struct {
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
	PID        int       `json:"pid"`
}

// Locker is the narrow interface the slot limiter and submission gate depend on.
// Implementations: *FileLocker (default) and *RedisLocker.
type Locker interface {
	// Acquire blocks until the named lock is held, polling at the configured
	// interval. It fails with ErrWaitBudgetExceeded once ctx is done.
	Acquire(ctx context.Context, name string) error
	// TryAcquire attempts a single acquisition round. Returns ErrLockHeld
	// without waiting when the lock is taken.
	TryAcquire(name string) error
	// Release frees the named lock. Releasing an absent lock is not an error.
	Release(name string) error
}

// FileLocker implements Locker with O_CREAT|O_EXCL marker files under Dir.
type FileLocker struct {
	Dir           string
	RetryInterval time.Duration
	owner         string
}

// NewFileLocker creates a file-based locker rooted at dir
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{
		Dir:           dir,
		RetryInterval: DefaultRetryInterval,
		owner:         uuid.NewString(),
	}
}

func (l *FileLocker) path(name string) string {
	return filepath.Join(l.Dir, name+".lock")
}

// TryAcquire attempts to atomically create the marker file.
// The create must be a single O_CREAT|O_EXCL open: concurrent callers race on
// it and the filesystem guarantees exactly one winner.
func (l *FileLocker) TryAcquire(name string) error {
	fd, err := os.OpenFile(l.path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrLockHeld
		}
		// Anything other than "already exists" is fatal for the caller.
		return fmt.Errorf("failed to create lock marker %s: %w", name, err)
	}

	body, _ := json.Marshal(marker{
		Owner:      l.owner,
		AcquiredAt: time.Now().UTC(),
		PID:        os.Getpid(),
	})
	if _, err := fd.Write(body); err != nil {
		// The lock is held even if the metadata write failed; the sweeper
		// treats an unreadable marker as stale-by-mtime.
		log.Printf("Lockfile: failed to write marker metadata for %s: %v", name, err)
	}
	if err := fd.Close(); err != nil {
		log.Printf("Lockfile: failed to close marker %s: %v", name, err)
	}
	return nil
}

// Acquire polls TryAcquire until it wins or ctx is done. Callers bound the wait
// with a context deadline; an unbounded wait on a request path is a bug.
func (l *FileLocker) Acquire(ctx context.Context, name string) error {
	interval := l.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	for {
		err := l.TryAcquire(name)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrWaitBudgetExceeded, name)
		case <-time.After(interval):
		}
	}
}

// Release removes the marker file. A missing marker means a sweeper or an
// operator already freed the lock; that is fine. Removal failures are logged
// and swallowed: a leaked marker is recovered by the sweeper, not by retrying.
func (l *FileLocker) Release(name string) error {
	err := os.Remove(l.path(name))
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Lockfile: error releasing %s: %v", name, err)
	}
	return nil
}

// StaleMarker describes a lock marker older than the grace period
type StaleMarker struct {
	Name       string
	AcquiredAt time.Time
	Owner      string
}

// Stale returns markers in Dir whose acquisition time (or mtime, when the
// metadata is unreadable) is older than maxAge. A holder that old is presumed
// to have crashed without releasing.
func (l *FileLocker) Stale(maxAge time.Duration) ([]StaleMarker, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan lock dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	var stale []StaleMarker

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lock") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".lock")

		var m marker
		acquiredAt := time.Time{}
		if body, err := os.ReadFile(filepath.Join(l.Dir, entry.Name())); err == nil {
			if err := json.Unmarshal(body, &m); err == nil {
				acquiredAt = m.AcquiredAt
			}
		}
		if acquiredAt.IsZero() {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			acquiredAt = info.ModTime()
		}

		if acquiredAt.Before(cutoff) {
			stale = append(stale, StaleMarker{Name: name, AcquiredAt: acquiredAt, Owner: m.Owner})
		}
	}

	return stale, nil
}

// ForceRelease removes a marker regardless of owner. Only the sweeper calls
// this, and only for markers past the stale grace period.
func (l *FileLocker) ForceRelease(name string) error {
	err := os.Remove(l.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to force-release %s: %w", name, err)
	}
	return nil
}
