package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/transhub/commit-webhooks/internal/domain"
	"github.com/transhub/commit-webhooks/internal/repository"
)

// MutationObserver is notified after every commit create or update becomes
// durable. before is nil on creation. Implemented by dispatch.Dispatcher;
// kept as an interface so service tests can capture dispatches directly.
type MutationObserver interface {
	CommitSaved(ctx context.Context, before *domain.Snapshot, after *domain.Commit) error
}

// CommitService owns the commit and project mutation path: it validates
// requests, persists changes, and hands the before/after view to the
// dispatch observer. Dispatch runs synchronously after the write so the
// after-state is durable before any notification job can execute, but it
// only enqueues — no network I/O happens on this path.
type CommitService struct {
	repo     repository.CommitRepository
	observer MutationObserver
	logger   *zap.Logger
}

func NewCommitService(
	repo repository.CommitRepository,
	observer MutationObserver,
	logger *zap.Logger,
) *CommitService {
	return &CommitService{repo: repo, observer: observer, logger: logger}
}

// CreateProject registers a project with its webhook configuration.
func (s *CommitService) CreateProject(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Project{
		ID:               uuid.New().String(),
		Slug:             req.Slug,
		RepositoryURL:    normalizeURL(req.RepositoryURL),
		StashWebhookURL:  normalizeURL(req.StashWebhookURL),
		GithubWebhookURL: normalizeURL(req.GithubWebhookURL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("persist project: %w", err)
	}
	return p, nil
}

// UpdateProject applies webhook/repository configuration changes.
// An omitted field is left unchanged; an empty string clears the URL,
// which disables the corresponding target from the next dispatch on.
// Jobs already queued against the old configuration are not cancelled;
// they fail loudly at execution time instead.
func (s *CommitService) UpdateProject(ctx context.Context, slug string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	p, err := s.repo.GetProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if req.RepositoryURL != nil {
		p.RepositoryURL = normalizeURL(req.RepositoryURL)
	}
	if req.StashWebhookURL != nil {
		p.StashWebhookURL = normalizeURL(req.StashWebhookURL)
	}
	if req.GithubWebhookURL != nil {
		p.GithubWebhookURL = normalizeURL(req.GithubWebhookURL)
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("persist project update: %w", err)
	}
	return p, nil
}

// CreateCommit starts tracking a revision and runs the creation dispatch
// path (before snapshot is nil). A dispatch enqueue failure is returned to
// the caller even though the commit itself was persisted: a silently lost
// notification job is worse than a retried creation.
func (s *CommitService) CreateCommit(ctx context.Context, req domain.CreateCommitRequest) (*domain.Commit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	project, err := s.repo.GetProjectBySlug(ctx, req.ProjectSlug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.Commit{
		ID:             uuid.New().String(),
		ProjectID:      project.ID,
		Revision:       req.Revision,
		RevisionPrefix: domain.AbbreviateRevision(req.Revision),
		Message:        req.Message,
		Ready:          req.Ready,
		Loading:        req.Loading,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateCommit(ctx, c); err != nil {
		return nil, fmt.Errorf("persist commit: %w", err)
	}

	c.Project = project
	if err := s.observer.CommitSaved(ctx, nil, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCommit applies a partial mutation, capturing the before snapshot
// for transition detection. Nil request fields leave flags untouched, so
// an unrelated update (message only) dispatches no notifications.
func (s *CommitService) UpdateCommit(ctx context.Context, id string, req domain.UpdateCommitRequest) (*domain.Commit, error) {
	c, err := s.repo.GetCommit(ctx, id)
	if err != nil {
		return nil, err
	}

	before := c.Snapshot()
	if req.Ready != nil {
		c.Ready = *req.Ready
	}
	if req.Loading != nil {
		c.Loading = *req.Loading
	}
	if req.Message != nil {
		c.Message = *req.Message
	}
	c.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateCommit(ctx, c); err != nil {
		return nil, fmt.Errorf("persist commit update: %w", err)
	}

	if err := s.observer.CommitSaved(ctx, &before, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommitService) GetCommit(ctx context.Context, id string) (*domain.Commit, error) {
	return s.repo.GetCommit(ctx, id)
}

func (s *CommitService) ListDeliveries(ctx context.Context, commitID string) ([]*domain.Delivery, error) {
	if _, err := s.repo.GetCommit(ctx, commitID); err != nil {
		return nil, err
	}
	return s.repo.ListDeliveries(ctx, commitID)
}

// normalizeURL maps empty strings to nil so "cleared" and "absent" are the
// same state everywhere downstream.
func normalizeURL(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
