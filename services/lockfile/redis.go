package lockfile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLocker implements Locker on Redis SETNX. Deployments that already run
// Redis prefer it over the file backend: markers expire on their own, so a
// crashed holder never needs the filesystem sweeper.
type RedisLocker struct {
	client        *redis.Client
	prefix        string
	ttl           time.Duration
	RetryInterval time.Duration
	owner         string
}

// NewRedisLocker creates a Redis-backed locker. The ttl doubles as the
// stale-lock grace period: a holder that dies simply lets its key expire.
func NewRedisLocker(redisURL string, ttl time.Duration) (*RedisLocker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisLocker{
		client:        client,
		prefix:        "gibo:lock:",
		ttl:           ttl,
		RetryInterval: DefaultRetryInterval,
		owner:         uuid.NewString(),
	}, nil
}

func (l *RedisLocker) key(name string) string {
	return l.prefix + name
}

// TryAcquire attempts a single SETNX round
func (l *RedisLocker) TryAcquire(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ok, err := l.client.SetNX(ctx, l.key(name), l.owner, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis lock %s: %w", name, err)
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Acquire polls TryAcquire until it wins or ctx is done
func (l *RedisLocker) Acquire(ctx context.Context, name string) error {
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

// Release deletes the key only when this locker still owns it, so a lock that
// expired and was re-acquired by another process is left alone.
func (l *RedisLocker) Release(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	if err := l.client.Eval(ctx, script, []string{l.key(name)}, l.owner).Err(); err != nil && err != redis.Nil {
		log.Printf("Lockfile: error releasing redis lock %s: %v", name, err)
	}
	return nil
}

// Close closes the underlying Redis connection
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
