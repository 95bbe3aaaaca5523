package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/transhub/commit-webhooks/internal/config"
	"github.com/transhub/commit-webhooks/internal/domain"
	"github.com/transhub/commit-webhooks/internal/queue"
	"github.com/transhub/commit-webhooks/internal/ratelimiter"
	"github.com/transhub/commit-webhooks/internal/repository"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the pool constructor signature clean.
type MetricHooks struct {
	OnDelivered func(target domain.Target, latency time.Duration)
	OnFailed    func(target domain.Target)
}

// Pool manages the lifecycle of all delivery workers. All workers share the
// same FIFO queue; jobs for different commit/target pairs have no shared
// state, so they run concurrently without coordination.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool creates cfg.DeliveryWorkers identical workers.
func NewPool(
	cfg *config.Config,
	q *queue.JobQueue,
	repo repository.CommitRepository,
	notifier StatusNotifier,
	limiter *ratelimiter.TargetLimiters,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	workers := make([]*Worker, cfg.DeliveryWorkers)

	for i := range workers {
		workers[i] = NewWorker(
			i, q, repo, notifier, limiter,
			cfg.WebhookRepeatCount,
			cfg.WebhookRetryDelay,
			logger.With(zap.Int("worker_id", i)),
			hooks.OnDelivered,
			hooks.OnFailed,
		)
	}

	return &Pool{workers: workers}
}

// Start launches all workers as goroutines.
// The provided ctx is forwarded to every worker; cancelling it
// triggers a graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
// Call this after cancelling the context so in-flight deliveries finish.
func (p *Pool) Wait() {
	p.wg.Wait()
}
