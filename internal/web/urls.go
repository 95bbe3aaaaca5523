// Package web builds the externally-visible URLs embedded in webhook
// payloads. The web UI itself is a separate system; only its URL scheme
// is known here, configured via WEB_BASE_URL.
package web

import (
	"fmt"
	"strings"

	"github.com/transhub/commit-webhooks/internal/domain"
)

// URLBuilder renders canonical links into the translation web UI.
type URLBuilder struct {
	baseURL string
}

func NewURLBuilder(baseURL string) *URLBuilder {
	return &URLBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// CommitURL returns the canonical page for a commit's translation status.
func (b *URLBuilder) CommitURL(project *domain.Project, commit *domain.Commit) string {
	return fmt.Sprintf("%s/projects/%s/commits/%s", b.baseURL, project.Slug, commit.Revision)
}
