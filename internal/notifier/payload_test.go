package notifier_test

import (
	"testing"

	"github.com/transhub/commit-webhooks/internal/domain"
	"github.com/transhub/commit-webhooks/internal/notifier"
	"github.com/transhub/commit-webhooks/internal/web"
)

func strPtr(s string) *string { return &s }

func testCommit(ready, loading bool) *domain.Commit {
	return &domain.Commit{
		ID:             "c-1",
		Revision:       "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678",
		RevisionPrefix: "a1b2c3d",
		Ready:          ready,
		Loading:        loading,
		Project: &domain.Project{
			Slug:          "terraforming-mars",
			RepositoryURL: strPtr("git@stash.internal:tm/strings.git"),
		},
	}
}

func TestBuildStatusPayload_StateMapping(t *testing.T) {
	tests := []struct {
		name            string
		ready           bool
		loading         bool
		wantState       string
		wantDescription string
	}{
		{"loading", false, true, notifier.StateInProgress, "Currently loading"},
		{"loading dominates ready", true, true, notifier.StateInProgress, "Currently loading"},
		{"translating", false, false, notifier.StateInProgress, "Currently translating"},
		{"completed", true, false, notifier.StateSuccessful, "Translations completed"},
	}

	urls := web.NewURLBuilder("https://translate.example.com")

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := notifier.BuildStatusPayload("TRANSHUB", urls, testCommit(tc.ready, tc.loading))
			if p.State != tc.wantState {
				t.Fatalf("expected state=%s, got %s", tc.wantState, p.State)
			}
			if p.Description != tc.wantDescription {
				t.Fatalf("expected description=%q, got %q", tc.wantDescription, p.Description)
			}
		})
	}
}

func TestBuildStatusPayload_IdentityFields(t *testing.T) {
	urls := web.NewURLBuilder("https://translate.example.com/")
	p := notifier.BuildStatusPayload("TRANSHUB", urls, testCommit(true, false))

	if p.Key != "TRANSHUB-terraforming-mars" {
		t.Fatalf("unexpected key: %q", p.Key)
	}
	if p.Name != "TRANSHUB-terraforming-mars-a1b2c3d" {
		t.Fatalf("unexpected name: %q", p.Name)
	}
	want := "https://translate.example.com/projects/terraforming-mars/commits/a1b2c3d4e5f60718293a4b5c6d7e8f9012345678"
	if p.URL != want {
		t.Fatalf("unexpected url:\n got %q\nwant %q", p.URL, want)
	}
}
