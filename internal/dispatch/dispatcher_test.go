package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/transhub/commit-webhooks/internal/dispatch"
	"github.com/transhub/commit-webhooks/internal/domain"
	"github.com/transhub/commit-webhooks/internal/queue"
)

// captureQueue records enqueued jobs instead of delivering them.
type captureQueue struct {
	jobs []queue.Job
	err  error
}

func (c *captureQueue) Enqueue(job queue.Job) error {
	if c.err != nil {
		return c.err
	}
	c.jobs = append(c.jobs, job)
	return nil
}

func strPtr(s string) *string { return &s }

type projectConfig struct {
	repo   bool
	stash  bool
	github bool
}

func commitWith(cfg projectConfig, ready, loading bool) *domain.Commit {
	p := &domain.Project{ID: "p-1", Slug: "terraforming-mars"}
	if cfg.repo {
		p.RepositoryURL = strPtr("git@stash.internal:tm/strings.git")
	}
	if cfg.stash {
		p.StashWebhookURL = strPtr("https://stash.internal/status")
	}
	if cfg.github {
		p.GithubWebhookURL = strPtr("https://github.internal/status")
	}
	return &domain.Commit{
		ID:        "c-1",
		ProjectID: p.ID,
		Revision:  "a1b2c3d4e5f6",
		Ready:     ready,
		Loading:   loading,
		Project:   p,
	}
}

func snap(ready, loading bool) *domain.Snapshot {
	return &domain.Snapshot{Ready: ready, Loading: loading}
}

func dispatchTo(t *testing.T, before *domain.Snapshot, after *domain.Commit) []queue.Job {
	t.Helper()
	q := &captureQueue{}
	d := dispatch.NewDispatcher(q, zap.NewNop(), nil)
	if err := d.CommitSaved(context.Background(), before, after); err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}
	return q.jobs
}

func TestDispatcher_StashFiresOnCreate(t *testing.T) {
	jobs := dispatchTo(t, nil, commitWith(projectConfig{repo: true, stash: true}, false, true))
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Target != domain.TargetStash || jobs[0].CommitID != "c-1" {
		t.Fatalf("unexpected job: %+v", jobs[0])
	}
}

func TestDispatcher_GithubDoesNotFireOnCreate(t *testing.T) {
	// Even a commit created already-ready must not ping the GitHub target.
	jobs := dispatchTo(t, nil, commitWith(projectConfig{repo: true, github: true}, true, false))
	if len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %+v", jobs)
	}
}

func TestDispatcher_GithubAsymmetricReadyTrigger(t *testing.T) {
	cfg := projectConfig{repo: true, github: true}

	t.Run("ready turning on fires once", func(t *testing.T) {
		jobs := dispatchTo(t, snap(false, false), commitWith(cfg, true, false))
		if len(jobs) != 1 || jobs[0].Target != domain.TargetGithub {
			t.Fatalf("expected one github job, got %+v", jobs)
		}
	})

	t.Run("ready turning off does not fire", func(t *testing.T) {
		jobs := dispatchTo(t, snap(true, false), commitWith(cfg, false, false))
		if len(jobs) != 0 {
			t.Fatalf("expected no jobs, got %+v", jobs)
		}
	})

	t.Run("loading transitions do not fire", func(t *testing.T) {
		jobs := dispatchTo(t, snap(false, true), commitWith(cfg, false, false))
		if len(jobs) != 0 {
			t.Fatalf("expected no jobs, got %+v", jobs)
		}
	})
}

func TestDispatcher_StashFiresOnBothDirections(t *testing.T) {
	cfg := projectConfig{repo: true, stash: true}

	tests := []struct {
		name   string
		before *domain.Snapshot
		after  *domain.Commit
		want   int
	}{
		{"ready on", snap(false, false), commitWith(cfg, true, false), 1},
		{"ready off", snap(true, false), commitWith(cfg, false, false), 1},
		{"loading finished", snap(false, true), commitWith(cfg, false, false), 1},
		{"loading started", snap(false, false), commitWith(cfg, false, true), 1},
		{"no flag change", snap(false, true), commitWith(cfg, false, true), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			jobs := dispatchTo(t, tc.before, tc.after)
			if len(jobs) != tc.want {
				t.Fatalf("expected %d jobs, got %+v", tc.want, jobs)
			}
		})
	}
}

func TestDispatcher_UnrelatedUpdateIsQuiet(t *testing.T) {
	// Message-only update: ready/loading unchanged, no jobs for any target.
	cfg := projectConfig{repo: true, stash: true, github: true}
	jobs := dispatchTo(t, snap(true, false), commitWith(cfg, true, false))
	if len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %+v", jobs)
	}
}

func TestDispatcher_BothTargetsFireIndependently(t *testing.T) {
	cfg := projectConfig{repo: true, stash: true, github: true}
	jobs := dispatchTo(t, snap(false, false), commitWith(cfg, true, false))
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %+v", jobs)
	}
	if jobs[0].Target != domain.TargetStash || jobs[1].Target != domain.TargetGithub {
		t.Fatalf("unexpected targets: %+v", jobs)
	}
}

func TestDispatcher_DisabledTargets(t *testing.T) {
	t.Run("no webhook URLs", func(t *testing.T) {
		jobs := dispatchTo(t, nil, commitWith(projectConfig{repo: true}, false, true))
		if len(jobs) != 0 {
			t.Fatalf("expected no jobs, got %+v", jobs)
		}
	})

	t.Run("webhook URL but no repository URL", func(t *testing.T) {
		jobs := dispatchTo(t, nil, commitWith(projectConfig{stash: true, github: true}, false, true))
		if len(jobs) != 0 {
			t.Fatalf("expected no jobs, got %+v", jobs)
		}
	})
}

func TestDispatcher_EnqueueFailurePropagates(t *testing.T) {
	q := &captureQueue{err: domain.ErrQueueFull}
	d := dispatch.NewDispatcher(q, zap.NewNop(), nil)

	err := d.CommitSaved(context.Background(), nil, commitWith(projectConfig{repo: true, stash: true}, false, true))
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull to propagate, got %v", err)
	}
}

func TestDispatcher_MetricsHookCountsEnqueues(t *testing.T) {
	counts := map[domain.Target]int{}
	d := dispatch.NewDispatcher(&captureQueue{}, zap.NewNop(), func(target domain.Target) {
		counts[target]++
	})

	cfg := projectConfig{repo: true, stash: true, github: true}
	if err := d.CommitSaved(context.Background(), snap(false, false), commitWith(cfg, true, false)); err != nil {
		t.Fatal(err)
	}
	if counts[domain.TargetStash] != 1 || counts[domain.TargetGithub] != 1 {
		t.Fatalf("unexpected hook counts: %v", counts)
	}
}
