package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/transhub/commit-webhooks/internal/repository"
)

// CleanupWorker periodically prunes delivery records older than the
// retention window. Delivery rows are append-only operational evidence;
// without pruning the table grows without bound.
type CleanupWorker struct {
	repo      repository.CommitRepository
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

func NewCleanupWorker(
	repo repository.CommitRepository,
	interval time.Duration,
	retention time.Duration,
	logger *zap.Logger,
) *CleanupWorker {
	return &CleanupWorker{repo: repo, interval: interval, retention: retention, logger: logger}
}

// Run ticks every interval and prunes expired delivery records.
// Stops cleanly when ctx is cancelled.
func (cw *CleanupWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(cw.interval)
	defer ticker.Stop()

	cw.logger.Info("cleanup worker started",
		zap.Duration("interval", cw.interval),
		zap.Duration("retention", cw.retention),
	)

	for {
		select {
		case <-ctx.Done():
			cw.logger.Info("cleanup worker stopping")
			return
		case <-ticker.C:
			cw.poll(ctx)
		}
	}
}

func (cw *CleanupWorker) poll(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-cw.retention)
	pruned, err := cw.repo.PruneDeliveries(ctx, cutoff)
	if err != nil {
		cw.logger.Error("delivery prune error", zap.Error(err))
		return
	}
	if pruned > 0 {
		cw.logger.Info("pruned delivery records", zap.Int64("count", pruned))
	}
}
