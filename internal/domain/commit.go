package domain

import "time"

// Target is an external webhook consumer kind. Each target has its own
// endpoint configuration on the project and its own firing conditions.
type Target string

const (
	TargetStash  Target = "stash"
	TargetGithub Target = "github"
)

func (t Target) IsValid() bool {
	switch t {
	case TargetStash, TargetGithub:
		return true
	}
	return false
}

// Project owns commits and carries the per-target webhook configuration.
// A nil webhook URL disables that target for the project; a nil repository
// URL disables all targets, since revision-addressed notification URLs
// cannot be built without a canonical repository identity.
type Project struct {
	ID               string     `json:"id"`
	Slug             string     `json:"slug"`
	RepositoryURL    *string    `json:"repository_url,omitempty"`
	StashWebhookURL  *string    `json:"stash_webhook_url,omitempty"`
	GithubWebhookURL *string    `json:"github_webhook_url,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// WebhookURL returns the configured endpoint for the given target,
// or nil if that target is disabled on this project.
func (p *Project) WebhookURL(t Target) *string {
	switch t {
	case TargetStash:
		return p.StashWebhookURL
	case TargetGithub:
		return p.GithubWebhookURL
	}
	return nil
}

// Commit is a tracked source-control revision. Ready means all translatable
// content is complete; Loading means the import pipeline is still parsing it.
// Revision and RevisionPrefix are immutable after creation.
type Commit struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	Revision       string    `json:"revision"`
	RevisionPrefix string    `json:"revision_prefix"`
	Message        string    `json:"message,omitempty"`
	Ready          bool      `json:"ready"`
	Loading        bool      `json:"loading"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Project is populated on reads; the repository joins it in.
	Project *Project `json:"project,omitempty"`
}

// Snapshot returns the commit's current transition-relevant state.
func (c *Commit) Snapshot() Snapshot {
	return Snapshot{Ready: c.Ready, Loading: c.Loading}
}

// RevisionPrefixLen is the abbreviated-revision length used for the
// external "name" field, matching git's default abbreviation.
const RevisionPrefixLen = 7

// AbbreviateRevision returns the short form of a full revision.
func AbbreviateRevision(revision string) string {
	if len(revision) <= RevisionPrefixLen {
		return revision
	}
	return revision[:RevisionPrefixLen]
}

// Delivery records one webhook job execution, success or failure.
// These rows are the operator-visible failure records for notification jobs.
type Delivery struct {
	ID           string    `json:"id"`
	CommitID     string    `json:"commit_id"`
	Target       Target    `json:"target"`
	Attempts     int       `json:"attempts"`
	Succeeded    bool      `json:"succeeded"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateProjectRequest is the inbound payload for registering a project.
type CreateProjectRequest struct {
	Slug             string  `json:"slug"`
	RepositoryURL    *string `json:"repository_url,omitempty"`
	StashWebhookURL  *string `json:"stash_webhook_url,omitempty"`
	GithubWebhookURL *string `json:"github_webhook_url,omitempty"`
}

func (r *CreateProjectRequest) Validate() error {
	if r.Slug == "" || len(r.Slug) > 64 {
		return ErrInvalidSlug
	}
	return nil
}

// UpdateProjectRequest carries optional configuration changes.
// A present-but-empty string clears the corresponding URL.
type UpdateProjectRequest struct {
	RepositoryURL    *string `json:"repository_url,omitempty"`
	StashWebhookURL  *string `json:"stash_webhook_url,omitempty"`
	GithubWebhookURL *string `json:"github_webhook_url,omitempty"`
}

// CreateCommitRequest is the inbound payload when the import pipeline
// starts tracking a revision.
type CreateCommitRequest struct {
	ProjectSlug string `json:"project_slug"`
	Revision    string `json:"revision"`
	Message     string `json:"message,omitempty"`
	Ready       bool   `json:"ready"`
	Loading     bool   `json:"loading"`
}

func (r *CreateCommitRequest) Validate() error {
	if r.ProjectSlug == "" {
		return ErrInvalidSlug
	}
	if r.Revision == "" || len(r.Revision) > 64 {
		return ErrInvalidRevision
	}
	return nil
}

// UpdateCommitRequest carries a partial commit mutation from the import or
// translation pipeline. Nil fields are left unchanged, so an unrelated
// update (message only) produces no ready/loading transition.
type UpdateCommitRequest struct {
	Ready   *bool   `json:"ready,omitempty"`
	Loading *bool   `json:"loading,omitempty"`
	Message *string `json:"message,omitempty"`
}
