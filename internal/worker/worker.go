package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/transhub/commit-webhooks/internal/domain"
	"github.com/transhub/commit-webhooks/internal/notifier"
	"github.com/transhub/commit-webhooks/internal/queue"
	"github.com/transhub/commit-webhooks/internal/ratelimiter"
	"github.com/transhub/commit-webhooks/internal/repository"
)

// StatusNotifier performs one complete delivery: up to repeat POSTs to the
// target endpoint, returning the number of attempts actually issued.
// Implemented by notifier.WebhookNotifier.
type StatusNotifier interface {
	Notify(ctx context.Context, baseURL, commitID string, repeat int, delay time.Duration) (int, error)
}

// compile-time check that the real notifier satisfies the worker's contract
var _ StatusNotifier = (*notifier.WebhookNotifier)(nil)

// Worker is a single goroutine that continuously pulls notification jobs
// from the queue, resolves the target endpoint from the commit's current
// project configuration, and runs the delivery. There is no cross-job
// retry here: a failed delivery is recorded and the job is done.
type Worker struct {
	id       int
	q        *queue.JobQueue
	repo     repository.CommitRepository
	notifier StatusNotifier
	limiter  *ratelimiter.TargetLimiters
	repeat   int
	delay    time.Duration
	logger   *zap.Logger

	// Hooks for metrics — injected by the pool so the worker stays metrics-agnostic.
	onDelivered func(target domain.Target, latency time.Duration)
	onFailed    func(target domain.Target)
}

// NewWorker constructs a worker. onDelivered and onFailed are optional (nil = no-op).
func NewWorker(
	id int,
	q *queue.JobQueue,
	repo repository.CommitRepository,
	notifier StatusNotifier,
	limiter *ratelimiter.TargetLimiters,
	repeat int,
	delay time.Duration,
	logger *zap.Logger,
	onDelivered func(domain.Target, time.Duration),
	onFailed func(domain.Target),
) *Worker {
	if onDelivered == nil {
		onDelivered = func(domain.Target, time.Duration) {}
	}
	if onFailed == nil {
		onFailed = func(domain.Target) {}
	}
	return &Worker{
		id: id, q: q, repo: repo, notifier: notifier,
		limiter: limiter, repeat: repeat, delay: delay, logger: logger,
		onDelivered: onDelivered, onFailed: onFailed,
	}
}

// Run blocks until ctx is cancelled, processing one job per iteration.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", zap.Int("id", w.id))
	for {
		job, ok := w.q.Dequeue(ctx)
		if !ok {
			w.logger.Info("worker stopping", zap.Int("id", w.id))
			return
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	log := w.logger.With(
		zap.String("commit_id", job.CommitID),
		zap.String("target", string(job.Target)),
	)

	commit, err := w.repo.GetCommit(ctx, job.CommitID)
	if err != nil {
		log.Error("failed to fetch commit for delivery", zap.Error(err))
		w.onFailed(job.Target)
		return
	}

	// Configuration is read at execution time, not enqueue time. A target
	// URL cleared since dispatch fails the job loudly rather than silently
	// skipping it.
	attempts := 0
	baseURL := commit.Project.WebhookURL(job.Target)
	if baseURL == nil {
		err = fmt.Errorf("target %s: %w", job.Target, domain.ErrMissingWebhookURL)
	} else if err = w.limiter.Wait(ctx, job.Target); err != nil {
		// ctx cancelled while waiting — worker is shutting down.
		return
	} else {
		attempts, err = w.notifier.Notify(ctx, *baseURL, job.CommitID, w.repeat, w.delay)
	}

	elapsed := time.Since(start)
	w.record(job, attempts, err)

	if err != nil {
		log.Warn("webhook delivery failed",
			zap.Error(err),
			zap.Int("attempts", attempts),
		)
		w.onFailed(job.Target)
		return
	}

	w.onDelivered(job.Target, elapsed)
	log.Info("webhook delivered", zap.Int("attempts", attempts), zap.Duration("latency", elapsed))
}

// record writes the delivery outcome. A background context is used so an
// outcome reached during shutdown is still persisted.
func (w *Worker) record(job queue.Job, attempts int, deliveryErr error) {
	d := &domain.Delivery{
		ID:        uuid.New().String(),
		CommitID:  job.CommitID,
		Target:    job.Target,
		Attempts:  attempts,
		Succeeded: deliveryErr == nil,
		CreatedAt: time.Now().UTC(),
	}
	if deliveryErr != nil {
		msg := deliveryErr.Error()
		d.ErrorMessage = &msg
	}

	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.repo.RecordDelivery(recordCtx, d); err != nil {
		w.logger.Error("failed to record delivery outcome",
			zap.String("commit_id", job.CommitID), zap.Error(err))
	}
}
