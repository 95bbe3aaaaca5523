package repository

import (
	"context"
	"sync"
	"time"

	"github.com/transhub/commit-webhooks/internal/domain"
)

// MockCommitRepository is a hand-written, in-memory implementation of
// CommitRepository used in unit tests. No mock-generation library needed.
type MockCommitRepository struct {
	mu         sync.RWMutex
	projects   map[string]*domain.Project // keyed by ID
	commits    map[string]*domain.Commit  // keyed by ID
	deliveries []*domain.Delivery

	// Optional error overrides — set in tests to simulate failure paths.
	GetCommitErr      error
	RecordDeliveryErr error
}

// compile-time check that the mock stays in sync with the interface
var _ CommitRepository = (*MockCommitRepository)(nil)

func NewMockCommitRepository() *MockCommitRepository {
	return &MockCommitRepository{
		projects: make(map[string]*domain.Project),
		commits:  make(map[string]*domain.Commit),
	}
}

func (m *MockCommitRepository) CreateProject(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.projects {
		if existing.Slug == p.Slug {
			return domain.ErrConflict
		}
	}
	clone := *p
	m.projects[p.ID] = &clone
	return nil
}

func (m *MockCommitRepository) GetProjectBySlug(_ context.Context, slug string) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.projects {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockCommitRepository) UpdateProject(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *p
	m.projects[p.ID] = &clone
	return nil
}

func (m *MockCommitRepository) CreateCommit(_ context.Context, c *domain.Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.commits {
		if existing.ProjectID == c.ProjectID && existing.Revision == c.Revision {
			return domain.ErrConflict
		}
	}
	clone := *c
	clone.Project = nil
	m.commits[c.ID] = &clone
	return nil
}

func (m *MockCommitRepository) GetCommit(_ context.Context, id string) (*domain.Commit, error) {
	if m.GetCommitErr != nil {
		return nil, m.GetCommitErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.commits[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *c
	if p, ok := m.projects[c.ProjectID]; ok {
		pClone := *p
		clone.Project = &pClone
	}
	return &clone, nil
}

func (m *MockCommitRepository) UpdateCommit(_ context.Context, c *domain.Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.commits[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Ready = c.Ready
	existing.Loading = c.Loading
	existing.Message = c.Message
	existing.UpdatedAt = c.UpdatedAt
	return nil
}

func (m *MockCommitRepository) RecordDelivery(_ context.Context, d *domain.Delivery) error {
	if m.RecordDeliveryErr != nil {
		return m.RecordDeliveryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *d
	m.deliveries = append(m.deliveries, &clone)
	return nil
}

func (m *MockCommitRepository) ListDeliveries(_ context.Context, commitID string) ([]*domain.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Delivery
	for _, d := range m.deliveries {
		if d.CommitID == commitID {
			clone := *d
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockCommitRepository) PruneDeliveries(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.deliveries[:0]
	var pruned int64
	for _, d := range m.deliveries {
		if d.CreatedAt.Before(olderThan) {
			pruned++
			continue
		}
		kept = append(kept, d)
	}
	m.deliveries = kept
	return pruned, nil
}
