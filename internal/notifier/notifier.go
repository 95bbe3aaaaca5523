package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/transhub/commit-webhooks/internal/domain"
)

// CommitReader is the slice of the repository the notifier needs: a fresh
// commit (with project joined) by ID. Each attempt re-reads through this
// interface so state changes between attempts are reflected in the payload.
type CommitReader interface {
	GetCommit(ctx context.Context, id string) (*domain.Commit, error)
}

// WebhookNotifier delivers commit status to an external endpoint by POSTing
// the status payload a fixed number of times with a fixed delay in between.
//
// The repeat loop is redundant delivery, not failure recovery: every attempt
// is sent even when earlier ones succeed, so an endpoint that consumed an
// in-progress status still receives the completion status if the commit was
// updated between attempts. A failed attempt ends the delivery immediately.
type WebhookNotifier struct {
	commits    CommitReader
	urls       CommitURLBuilder
	keyPrefix  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewWebhookNotifier(
	commits CommitReader,
	urls CommitURLBuilder,
	keyPrefix string,
	timeout time.Duration,
	logger *zap.Logger,
) *WebhookNotifier {
	return &WebhookNotifier{
		commits:   commits,
		urls:      urls,
		keyPrefix: keyPrefix,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Notify POSTs the commit's current status to baseURL/<revision> exactly
// repeat times, sleeping delay between consecutive attempts (not after the
// last). It returns the number of POSTs actually issued.
//
// Preconditions are checked before any request goes out: the commit must
// exist and its project must have a repository URL, otherwise
// domain.ErrMissingRepository is returned with zero attempts.
//
// Any non-2xx response, and any transport failure, terminates the delivery
// with a *domain.DeliveryError; remaining attempts are abandoned.
func (n *WebhookNotifier) Notify(ctx context.Context, baseURL, commitID string, repeat int, delay time.Duration) (int, error) {
	commit, err := n.commits.GetCommit(ctx, commitID)
	if err != nil {
		return 0, fmt.Errorf("load commit %s: %w", commitID, err)
	}
	if commit.Project == nil || commit.Project.RepositoryURL == nil {
		return 0, fmt.Errorf("commit %s: %w", commitID, domain.ErrMissingRepository)
	}

	url := baseURL + "/" + commit.Revision

	attempts := 0
	for i := 0; i < repeat; i++ {
		if i > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return attempts, ctx.Err()
			}

			// Re-read so this attempt reports the commit's state as of now,
			// not as of the first attempt.
			commit, err = n.commits.GetCommit(ctx, commitID)
			if err != nil {
				return attempts, fmt.Errorf("reload commit %s: %w", commitID, err)
			}
		}

		payload := BuildStatusPayload(n.keyPrefix, n.urls, commit)
		attempts++

		if err := n.post(ctx, url, commit, payload); err != nil {
			return attempts, err
		}

		n.logger.Debug("status posted",
			zap.String("commit_id", commit.ID),
			zap.String("revision", commit.Revision),
			zap.String("state", payload.State),
			zap.Int("attempt", attempts),
			zap.Int("of", repeat),
		)
	}

	return attempts, nil
}

func (n *WebhookNotifier) post(ctx context.Context, url string, commit *domain.Commit, payload StatusPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		// Transport failure is not distinguished from a rejection; both
		// terminate the delivery.
		return &domain.DeliveryError{
			CommitID: commit.ID,
			Revision: commit.Revision,
			Err:      err,
		}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.DeliveryError{
			CommitID:   commit.ID,
			Revision:   commit.Revision,
			StatusCode: resp.StatusCode,
		}
	}
	return nil
}
