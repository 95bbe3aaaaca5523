package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/transhub/commit-webhooks/internal/domain"
)

// TargetLimiters holds one token bucket limiter per webhook target kind,
// so a flapping Stash endpoint cannot starve GitHub deliveries of their
// outbound budget. Burst equals the rate: no extra burst capacity beyond
// the configured per-second maximum.
type TargetLimiters struct {
	limiters map[domain.Target]*rate.Limiter
}

// New creates a TargetLimiters with ratePerSec tokens per second per target.
func New(ratePerSec int) *TargetLimiters {
	r := rate.Limit(ratePerSec)
	burst := ratePerSec

	return &TargetLimiters{
		limiters: map[domain.Target]*rate.Limiter{
			domain.TargetStash:  rate.NewLimiter(r, burst),
			domain.TargetGithub: rate.NewLimiter(r, burst),
		},
	}
}

// Wait blocks until the target's limiter grants a token. Called by each
// worker immediately before starting a delivery. Returns a non-nil error
// only if ctx is cancelled while waiting or the target is unknown.
func (tl *TargetLimiters) Wait(ctx context.Context, target domain.Target) error {
	l, ok := tl.limiters[target]
	if !ok {
		return domain.ErrInvalidTarget
	}
	return l.Wait(ctx)
}
