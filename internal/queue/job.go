package queue

import "github.com/transhub/commit-webhooks/internal/domain"

// Job is the minimal unit of work placed on the queue: which target to
// notify about which commit. Workers fetch the full commit (and its
// project configuration) from the DB at execution time, so configuration
// changes between enqueue and execution are observed, not frozen.
type Job struct {
	Target   domain.Target
	CommitID string
}
