package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/transhub/commit-webhooks/internal/domain"
)

type pgCommitRepository struct {
	pool *pgxpool.Pool
}

// NewPgCommitRepository returns a CommitRepository backed by PostgreSQL.
func NewPgCommitRepository(pool *pgxpool.Pool) CommitRepository {
	return &pgCommitRepository{pool: pool}
}

func (r *pgCommitRepository) CreateProject(ctx context.Context, p *domain.Project) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects
			(id, slug, repository_url, stash_webhook_url, github_webhook_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.Slug, p.RepositoryURL, p.StashWebhookURL, p.GithubWebhookURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "projects_slug_key") {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *pgCommitRepository) GetProjectBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, slug, repository_url, stash_webhook_url, github_webhook_url, created_at, updated_at
		FROM projects WHERE slug = $1`, slug)

	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *pgCommitRepository) UpdateProject(ctx context.Context, p *domain.Project) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects
		SET repository_url = $1, stash_webhook_url = $2, github_webhook_url = $3, updated_at = $4
		WHERE id = $5`,
		p.RepositoryURL, p.StashWebhookURL, p.GithubWebhookURL, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgCommitRepository) CreateCommit(ctx context.Context, c *domain.Commit) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO commits
			(id, project_id, revision, revision_prefix, message, ready, loading, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.ProjectID, c.Revision, c.RevisionPrefix, c.Message, c.Ready, c.Loading, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "commits_project_id_revision_key") {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert commit: %w", err)
	}
	return nil
}

func (r *pgCommitRepository) GetCommit(ctx context.Context, id string) (*domain.Commit, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT c.id, c.project_id, c.revision, c.revision_prefix, c.message,
		       c.ready, c.loading, c.created_at, c.updated_at,
		       p.id, p.slug, p.repository_url, p.stash_webhook_url, p.github_webhook_url,
		       p.created_at, p.updated_at
		FROM commits c
		JOIN projects p ON p.id = c.project_id
		WHERE c.id = $1`, id)

	var c domain.Commit
	var p domain.Project
	err := row.Scan(
		&c.ID, &c.ProjectID, &c.Revision, &c.RevisionPrefix, &c.Message,
		&c.Ready, &c.Loading, &c.CreatedAt, &c.UpdatedAt,
		&p.ID, &p.Slug, &p.RepositoryURL, &p.StashWebhookURL, &p.GithubWebhookURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}
	c.Project = &p
	return &c, nil
}

func (r *pgCommitRepository) UpdateCommit(ctx context.Context, c *domain.Commit) error {
	// Revision and revision_prefix are immutable; only the tracked flags
	// and message are written back.
	tag, err := r.pool.Exec(ctx, `
		UPDATE commits
		SET ready = $1, loading = $2, message = $3, updated_at = $4
		WHERE id = $5`,
		c.Ready, c.Loading, c.Message, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update commit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgCommitRepository) RecordDelivery(ctx context.Context, d *domain.Delivery) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_deliveries
			(id, commit_id, target, attempts, succeeded, error_message, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.CommitID, d.Target, d.Attempts, d.Succeeded, d.ErrorMessage, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func (r *pgCommitRepository) ListDeliveries(ctx context.Context, commitID string) ([]*domain.Delivery, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, commit_id, target, attempts, succeeded, error_message, created_at
		FROM webhook_deliveries
		WHERE commit_id = $1
		ORDER BY created_at DESC`, commitID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(&d.ID, &d.CommitID, &d.Target, &d.Attempts, &d.Succeeded, &d.ErrorMessage, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		deliveries = append(deliveries, &d)
	}
	return deliveries, rows.Err()
}

func (r *pgCommitRepository) PruneDeliveries(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM webhook_deliveries WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.Slug, &p.RepositoryURL, &p.StashWebhookURL, &p.GithubWebhookURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
