// Package preview bounds the number of users concurrently previewing uploads.
// A slot is a ticket; the count of handed-out tickets lives in a shared counter
// guarded by the preview lock, not in process memory, so every API process
// serving the school sees the same occupancy.
package preview

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/team-educhange/gibo-api/services/lockfile"
)

// lockName is the resource name guarding the slot counter
const lockName = "preview_slots"

// WaitSecondsPerUser feeds the human-facing wait estimate shown on denial
const WaitSecondsPerUser = 10

// Limiter is the admission controller for preview sessions
type Limiter struct {
	locks      lockfile.Locker
	counter    CounterStore
	capacity   int
	waitBudget time.Duration
}

// Slot is the outcome of an admission attempt. When Granted is false, Position
// is the current occupancy, which callers turn into a queue position and an
// estimated wait.
type Slot struct {
	Granted  bool `json:"granted"`
	Position int  `json:"position"`
	Capacity int  `json:"capacity"`
}

// EstimatedWaitSeconds is a fixed monotonic function of occupancy
func (s Slot) EstimatedWaitSeconds() int {
	return (s.Position + 1) * WaitSecondsPerUser
}

// NewLimiter creates a slot limiter with the given capacity. Lock acquisitions
// on the request path are bounded by waitBudget so a leaked marker surfaces as
// a fast busy answer instead of a hung request. The counter is reset to zero:
// slots are not meant to survive a restart, and a stale count would deny users
// forever.
func NewLimiter(locks lockfile.Locker, counter CounterStore, capacity int, waitBudget time.Duration) (*Limiter, error) {
	if err := counter.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset preview slot counter: %w", err)
	}
	// A marker left behind by a crashed process would wedge admission entirely.
	if err := locks.Release(lockName); err != nil {
		return nil, err
	}

	return &Limiter{locks: locks, counter: counter, capacity: capacity, waitBudget: waitBudget}, nil
}

func (l *Limiter) acquireLock(ctx context.Context) (func(), error) {
	if l.waitBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.waitBudget)
		defer cancel()
	}
	if err := l.locks.Acquire(ctx, lockName); err != nil {
		return nil, err
	}
	return func() { l.locks.Release(lockName) }, nil
}

// TryAcquireSlot grants a preview slot if occupancy is below capacity.
// The read-check-increment must not interleave with another caller's, so the
// whole sequence runs under the preview lock. The counter is a plain persisted
// value, not an atomic register; the lock is what makes check-then-act safe.
func (l *Limiter) TryAcquireSlot(ctx context.Context) (Slot, error) {
	release, err := l.acquireLock(ctx)
	if err != nil {
		return Slot{}, err
	}
	defer release()

	count, err := l.counter.Get()
	if err != nil {
		return Slot{}, err
	}

	if count >= l.capacity {
		return Slot{Granted: false, Position: count, Capacity: l.capacity}, nil
	}

	count++
	if err := l.counter.Set(count); err != nil {
		return Slot{}, err
	}

	return Slot{Granted: true, Position: count, Capacity: l.capacity}, nil
}

// ReleaseSlot returns a slot. Decrements clamp at zero: releasing a slot that
// was never granted must not push the counter negative.
func (l *Limiter) ReleaseSlot(ctx context.Context) error {
	release, err := l.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer release()

	count, err := l.counter.Get()
	if err != nil {
		return err
	}

	count--
	if count < 0 {
		count = 0
	}
	if err := l.counter.Set(count); err != nil {
		return err
	}

	log.Printf("Preview: slot released, occupancy now %d/%d", count, l.capacity)
	return nil
}

// Capacity returns the configured slot capacity
func (l *Limiter) Capacity() int {
	return l.capacity
}
