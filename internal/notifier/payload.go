package notifier

import (
	"fmt"

	"github.com/transhub/commit-webhooks/internal/domain"
)

// State values in the external status vocabulary. The receiving APIs
// (Stash build status, issue-tracker webhooks) fix these strings.
const (
	StateInProgress = "INPROGRESS"
	StateSuccessful = "SUCCESSFUL"
)

const (
	descLoading     = "Currently loading"
	descTranslating = "Currently translating"
	descCompleted   = "Translations completed"
)

// StatusPayload is the JSON body POSTed to a webhook endpoint.
type StatusPayload struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	State       string `json:"state"`
	Description string `json:"description"`
}

// CommitURLBuilder supplies the canonical web URL for a commit
// (implemented by web.URLBuilder).
type CommitURLBuilder interface {
	CommitURL(project *domain.Project, commit *domain.Commit) string
}

// BuildStatusPayload maps a commit's current flags to the external wire
// vocabulary. Loading dominates readiness: while the import is running the
// state is reported as in-progress even if ready is already set.
func BuildStatusPayload(keyPrefix string, urls CommitURLBuilder, commit *domain.Commit) StatusPayload {
	state := StateInProgress
	description := descLoading

	if !commit.Loading {
		if commit.Ready {
			state = StateSuccessful
			description = descCompleted
		} else {
			description = descTranslating
		}
	}

	project := commit.Project
	return StatusPayload{
		Key:         fmt.Sprintf("%s-%s", keyPrefix, project.Slug),
		Name:        fmt.Sprintf("%s-%s-%s", keyPrefix, project.Slug, commit.RevisionPrefix),
		URL:         urls.CommitURL(project, commit),
		State:       state,
		Description: description,
	}
}
