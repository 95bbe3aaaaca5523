package repository

import (
	"context"
	"time"

	"github.com/transhub/commit-webhooks/internal/domain"
)

// CommitRepository defines all persistence operations for projects, commits,
// and delivery records. The pgx implementation is in pg_commit_repo.go.
// Tests use a hand-written mock (mock_commit_repo.go).
type CommitRepository interface {
	CreateProject(ctx context.Context, p *domain.Project) error
	GetProjectBySlug(ctx context.Context, slug string) (*domain.Project, error)
	UpdateProject(ctx context.Context, p *domain.Project) error

	CreateCommit(ctx context.Context, c *domain.Commit) error
	// GetCommit returns the commit with its owning project joined in.
	GetCommit(ctx context.Context, id string) (*domain.Commit, error)
	UpdateCommit(ctx context.Context, c *domain.Commit) error

	RecordDelivery(ctx context.Context, d *domain.Delivery) error
	ListDeliveries(ctx context.Context, commitID string) ([]*domain.Delivery, error)
	PruneDeliveries(ctx context.Context, olderThan time.Time) (int64, error)
}
