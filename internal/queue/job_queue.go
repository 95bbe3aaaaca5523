package queue

import (
	"context"

	"github.com/transhub/commit-webhooks/internal/domain"
)

// DefaultCapacity bounds the number of pending notification jobs. Commit
// mutations are low-frequency relative to delivery throughput, so a full
// queue indicates a stuck or unreachable endpoint, and back-pressure to
// the mutating caller is the correct signal.
const DefaultCapacity = 1024

// JobQueue is a bounded in-memory FIFO of notification jobs. Jobs for
// different commits and targets carry no ordering relationship beyond
// enqueue order, so a single channel is sufficient.
type JobQueue struct {
	jobs chan Job
}

// New creates a JobQueue with the given capacity; capacity <= 0 falls
// back to DefaultCapacity.
func New(capacity int) *JobQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &JobQueue{jobs: make(chan Job, capacity)}
}

// Enqueue places a job on the queue. It is non-blocking: if the queue is
// full, ErrQueueFull is returned immediately so the triggering commit
// mutation sees the lost notification instead of it being silently dropped.
func (q *JobQueue) Enqueue(job Job) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Dequeue blocks until a job is available or ctx is cancelled.
// Returns (Job{}, false) on cancellation (graceful shutdown signal).
func (q *JobQueue) Dequeue(ctx context.Context) (Job, bool) {
	select {
	case job := <-q.jobs:
		return job, true
	case <-ctx.Done():
		return Job{}, false
	}
}

// Depth returns the current number of pending jobs, for the metrics snapshot.
func (q *JobQueue) Depth() int {
	return len(q.jobs)
}
