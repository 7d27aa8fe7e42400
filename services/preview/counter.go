package preview

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore is a crash-durable key→integer cell for the slot count.
// Reads and writes are NOT atomic on their own; the Limiter serializes them
// under the preview lock. Implementations: FileCounter, RedisCounter.
type CounterStore interface {
	Get() (int, error)
	Set(count int) error
	Reset() error
}

// FileCounter persists the count as a decimal string in a single file,
// the same shape the shared filesystem deployment has always used.
type FileCounter struct {
	Path string
}

// NewFileCounter creates a file-backed counter at path
func NewFileCounter(path string) *FileCounter {
	return &FileCounter{Path: path}
}

// Get reads the current count. A missing file or garbage content reads as
// zero rather than failing: the counter self-heals on the next Set.
func (c *FileCounter) Get() (int, error) {
	body, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read counter %s: %w", c.Path, err)
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, nil
	}
	return count, nil
}

// Set writes the count
func (c *FileCounter) Set(count int) error {
	if err := os.WriteFile(c.Path, []byte(strconv.Itoa(count)), 0o644); err != nil {
		return fmt.Errorf("failed to write counter %s: %w", c.Path, err)
	}
	return nil
}

// Reset zeroes the counter
func (c *FileCounter) Reset() error {
	return c.Set(0)
}

// RedisCounter keeps the count in a Redis key, for deployments using the
// Redis lock backend.
type RedisCounter struct {
	client *redis.Client
	key    string
}

// NewRedisCounter creates a Redis-backed counter
func NewRedisCounter(redisURL, key string) (*RedisCounter, error) {
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

	return &RedisCounter{client: client, key: key}, nil
}

func (c *RedisCounter) Get() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	val, err := c.client.Get(ctx, c.key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, nil
	}
	return count, nil
}

func (c *RedisCounter) Set(count int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return c.client.Set(ctx, c.key, strconv.Itoa(count), 0).Err()
}

func (c *RedisCounter) Reset() error {
	return c.Set(0)
}

// Close closes the underlying Redis connection
func (c *RedisCounter) Close() error {
	return c.client.Close()
}
