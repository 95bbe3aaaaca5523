// Package dispatch decides, from a before/after view of a commit mutation,
// which webhook targets must be notified, and enqueues one job per firing
// target. It performs no network I/O and runs synchronously on the
// mutation path, so it must stay cheap.
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/transhub/commit-webhooks/internal/domain"
	"github.com/transhub/commit-webhooks/internal/queue"
)

// JobQueue is the enqueue side of the notification queue. Kept as an
// interface so tests capture enqueued jobs with an in-memory fake.
type JobQueue interface {
	Enqueue(job queue.Job) error
}

// compile-time check that the in-memory queue satisfies the interface
var _ JobQueue = (*queue.JobQueue)(nil)

// Dispatcher observes commit mutations and enqueues notification jobs.
//
// The two targets intentionally disagree on granularity: the Stash-style
// build status wants every progress and regress signal, while the
// GitHub-style consumer only wants to hear when translations complete.
// Do not unify the trigger conditions.
type Dispatcher struct {
	jobs      JobQueue
	logger    *zap.Logger
	onEnqueue func(target domain.Target)
}

// NewDispatcher constructs a dispatcher. onEnqueue is an optional metrics
// hook invoked once per enqueued job (nil = no-op).
func NewDispatcher(jobs JobQueue, logger *zap.Logger, onEnqueue func(domain.Target)) *Dispatcher {
	if onEnqueue == nil {
		onEnqueue = func(domain.Target) {}
	}
	return &Dispatcher{jobs: jobs, logger: logger, onEnqueue: onEnqueue}
}

// CommitSaved is invoked by the service after a commit create or update is
// durable. before is nil for creation. Enqueue failures are returned to the
// caller: a notification job lost at dispatch time would otherwise be
// undetectable.
func (d *Dispatcher) CommitSaved(ctx context.Context, before *domain.Snapshot, after *domain.Commit) error {
	if after.Project == nil {
		return fmt.Errorf("commit %s: project not loaded", after.ID)
	}

	for _, target := range []domain.Target{domain.TargetStash, domain.TargetGithub} {
		if !d.enabled(target, after.Project) {
			continue
		}
		if !d.fires(target, before, after.Snapshot()) {
			continue
		}

		if err := d.jobs.Enqueue(queue.Job{Target: target, CommitID: after.ID}); err != nil {
			return fmt.Errorf("enqueue %s notification for commit %s: %w", target, after.ID, err)
		}
		d.onEnqueue(target)
		d.logger.Info("notification job enqueued",
			zap.String("target", string(target)),
			zap.String("commit_id", after.ID),
			zap.String("revision", after.Revision),
		)
	}
	return nil
}

// enabled reports whether the project is configured for the target at all.
// Both the target's own URL and the repository URL are required; the latter
// is also re-checked at execution time, since configuration may change
// between enqueue and delivery.
func (d *Dispatcher) enabled(target domain.Target, p *domain.Project) bool {
	return p.WebhookURL(target) != nil && p.RepositoryURL != nil
}

// fires applies the per-target trigger condition to the transition.
func (d *Dispatcher) fires(target domain.Target, before *domain.Snapshot, after domain.Snapshot) bool {
	switch target {
	case domain.TargetStash:
		// Creation always fires; afterwards any movement of either flag,
		// in either direction, fires.
		if before == nil {
			return true
		}
		return domain.ReadyChanged(*before, after) || domain.LoadingChanged(*before, after)
	case domain.TargetGithub:
		// Edge-triggered on readiness turning on only. Never on creation,
		// un-readying, or loading transitions.
		if before == nil {
			return false
		}
		return domain.JustBecameReady(*before, after)
	}
	return false
}
