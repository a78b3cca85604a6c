package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/cardledger/internal/usecase"
)

// ProgressCache implements usecase.ProgressCache using Redis.
type ProgressCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewProgressCache creates a new ProgressCache. Snapshots expire ttl after
// their last update.
func NewProgressCache(client *redis.Client, ttl time.Duration) *ProgressCache {
	if ttl <= 0 {
		ttl = usecase.ProgressTTL
	}

	return &ProgressCache{
		client: client,
		prefix: "job_progress:",
		ttl:    ttl,
	}
}

// Put stores a snapshot.
func (c *ProgressCache) Put(ctx context.Context, snapshot usecase.ProgressSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.prefix+snapshot.JobID, data, c.ttl).Err()
}

// Get returns the cached snapshot, or nil when there is none.
func (c *ProgressCache) Get(ctx context.Context, jobID string) (*usecase.ProgressSnapshot, error) {
	data, err := c.client.Get(ctx, c.prefix+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot usecase.ProgressSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// Delete drops a job's snapshot.
func (c *ProgressCache) Delete(ctx context.Context, jobID string) error {
	return c.client.Del(ctx, c.prefix+jobID).Err()
}
