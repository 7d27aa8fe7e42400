package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/team-educhange/gibo-api/services/digitalocean"
)

// CountsObjectKey is where the attempt-count map lives in the object store
const CountsObjectKey = "submission_counts.json"

// ObjectStore is the durable key-value collaborator: last-write-wins puts,
// gets that report absence as digitalocean.ErrObjectNotFound. The store
// supplies no exclusivity; callers read-modify-write under the submission lock.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
}

// AttemptCounter tracks how many times each submission record key has been
// submitted. Counts only grow; nothing here deletes a key.
type AttemptCounter struct {
	store ObjectStore
}

// NewAttemptCounter creates a counter over the given store
func NewAttemptCounter(store ObjectStore) *AttemptCounter {
	return &AttemptCounter{store: store}
}

func (c *AttemptCounter) load(ctx context.Context) (map[string]int, error) {
	body, err := c.store.Download(ctx, CountsObjectKey)
	if err != nil {
		if errors.Is(err, digitalocean.ErrObjectNotFound) {
			return map[string]int{}, nil
		}
		return nil, fmt.Errorf("failed to load submission counts: %w", err)
	}

	counts := map[string]int{}
	if err := json.Unmarshal(body, &counts); err != nil {
		return nil, fmt.Errorf("submission counts are corrupt: %w", err)
	}
	return counts, nil
}

// Get returns the current attempt count for a record key (0 when unseen)
func (c *AttemptCounter) Get(ctx context.Context, recordKey string) (int, error) {
	counts, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	return counts[recordKey], nil
}

// Increment bumps the attempt count for a record key. The whole map is
// rewritten; the caller must hold the submission lock or concurrent
// increments would lose updates.
func (c *AttemptCounter) Increment(ctx context.Context, recordKey string) error {
	counts, err := c.load(ctx)
	if err != nil {
		return err
	}

	counts[recordKey]++

	body, err := json.MarshalIndent(counts, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode submission counts: %w", err)
	}

	if err := c.store.Upload(ctx, CountsObjectKey, body, "application/json"); err != nil {
		return fmt.Errorf("failed to save submission counts: %w", err)
	}
	return nil
}
