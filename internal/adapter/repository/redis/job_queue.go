package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobQueue implements usecase.JobQueue on a pair of Redis lists. Dequeued
// ids move atomically to a processing list and stay there until acked, so a
// worker that dies mid-job leaves the id behind for Recover.
type JobQueue struct {
	client     *redis.Client
	pending    string
	processing string
}

// NewJobQueue creates a new JobQueue for the named queue.
func NewJobQueue(client *redis.Client, name string) *JobQueue {
	return &JobQueue{
		client:     client,
		pending:    "queue:" + name,
		processing: "queue:" + name + ":processing",
	}
}

// Enqueue appends a job id.
func (q *JobQueue) Enqueue(ctx context.Context, jobID string) error {
	return q.client.LPush(ctx, q.pending, jobID).Err()
}

// Dequeue blocks up to timeout for the next job id. It returns an empty id
// when nothing arrived in time.
func (q *JobQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	id, err := q.client.BRPopLPush(ctx, q.pending, q.processing, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return id, nil
}

// Ack drops a finished job id from the processing list.
func (q *JobQueue) Ack(ctx context.Context, jobID string) error {
	return q.client.LRem(ctx, q.processing, 1, jobID).Err()
}

// Recover moves every id left in the processing list back onto the queue.
// Call it before any worker of this queue starts consuming.
func (q *JobQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := q.client.RPopLPush(ctx, q.processing, q.pending).Result()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, err
		}
		moved++
	}
}

// Len returns the number of waiting job ids.
func (q *JobQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.pending).Result()
}
