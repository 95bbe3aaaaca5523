package notifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/transhub/commit-webhooks/internal/domain"
	"github.com/transhub/commit-webhooks/internal/notifier"
	"github.com/transhub/commit-webhooks/internal/web"
)

// fakeCommits is an in-memory CommitReader whose state tests can mutate
// between notification attempts.
type fakeCommits struct {
	mu     sync.Mutex
	commit *domain.Commit
}

func (f *fakeCommits) GetCommit(_ context.Context, id string) (*domain.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commit == nil || f.commit.ID != id {
		return nil, domain.ErrNotFound
	}
	clone := *f.commit
	return &clone, nil
}

func (f *fakeCommits) setFlags(ready, loading bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commit.Ready = ready
	f.commit.Loading = loading
}

func newNotifier(commits notifier.CommitReader) *notifier.WebhookNotifier {
	urls := web.NewURLBuilder("https://translate.example.com")
	return notifier.NewWebhookNotifier(commits, urls, "TRANSHUB", time.Second, zap.NewNop())
}

func TestWebhookNotifier_RepeatsExactly(t *testing.T) {
	commits := &fakeCommits{commit: testCommit(false, true)}

	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := newNotifier(commits)
	attempts, err := n.Notify(context.Background(), srv.URL+"/hooks", "c-1", 3, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected attempts=3, got %d", attempts)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 3 {
		t.Fatalf("expected 3 POSTs, got %d", len(paths))
	}
	for _, p := range paths {
		if p != "/hooks/a1b2c3d4e5f60718293a4b5c6d7e8f9012345678" {
			t.Fatalf("unexpected request path %q", p)
		}
	}
}

func TestWebhookNotifier_AbortsOnRejection(t *testing.T) {
	commits := &fakeCommits{commit: testCommit(false, false)}

	var mu sync.Mutex
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		reject := calls == 2
		mu.Unlock()
		if reject {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newNotifier(commits)
	attempts, err := n.Notify(context.Background(), srv.URL, "c-1", 5, time.Millisecond)

	if attempts != 2 {
		t.Fatalf("expected 2 attempts before abort, got %d", attempts)
	}
	mu.Lock()
	got := calls
	mu.Unlock()
	if got != 2 {
		t.Fatalf("expected 2 POSTs, got %d", got)
	}

	var delErr *domain.DeliveryError
	if !errors.As(err, &delErr) {
		t.Fatalf("expected *domain.DeliveryError, got %v", err)
	}
	if delErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502 in error, got %d", delErr.StatusCode)
	}
	if delErr.CommitID != "c-1" || delErr.Revision != "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678" {
		t.Fatalf("error is missing commit identity: %+v", delErr)
	}
}

func TestWebhookNotifier_TransportFailureIsTerminal(t *testing.T) {
	commits := &fakeCommits{commit: testCommit(false, false)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from the first attempt

	n := newNotifier(commits)
	attempts, err := n.Notify(context.Background(), srv.URL, "c-1", 3, time.Millisecond)

	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", attempts)
	}
	var delErr *domain.DeliveryError
	if !errors.As(err, &delErr) {
		t.Fatalf("expected *domain.DeliveryError, got %v", err)
	}
	if delErr.StatusCode != 0 || delErr.Err == nil {
		t.Fatalf("expected a wrapped transport error, got %+v", delErr)
	}
}

func TestWebhookNotifier_MissingRepositoryURL(t *testing.T) {
	commit := testCommit(false, false)
	commit.Project.RepositoryURL = nil
	commits := &fakeCommits{commit: commit}

	var mu sync.Mutex
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
	}))
	defer srv.Close()

	n := newNotifier(commits)
	attempts, err := n.Notify(context.Background(), srv.URL, "c-1", 3, time.Millisecond)

	if !errors.Is(err, domain.ErrMissingRepository) {
		t.Fatalf("expected ErrMissingRepository, got %v", err)
	}
	mu.Lock()
	got := calls
	mu.Unlock()
	if attempts != 0 || got != 0 {
		t.Fatalf("expected no POSTs, got attempts=%d calls=%d", attempts, got)
	}
}

func TestWebhookNotifier_UnknownCommit(t *testing.T) {
	commits := &fakeCommits{}

	n := newNotifier(commits)
	attempts, err := n.Notify(context.Background(), "http://127.0.0.1:0", "ghost", 3, time.Millisecond)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if attempts != 0 {
		t.Fatalf("expected no attempts, got %d", attempts)
	}
}

// TestWebhookNotifier_ReReadsStateBetweenAttempts models the two-phase
// announce: the commit finishes translating between the first and second
// attempt, and the second POST must carry the completed status.
func TestWebhookNotifier_ReReadsStateBetweenAttempts(t *testing.T) {
	commits := &fakeCommits{commit: testCommit(false, true)}

	var mu sync.Mutex
	var states []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p notifier.StatusPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		mu.Lock()
		states = append(states, p.State)
		first := len(states) == 1
		mu.Unlock()

		if first {
			commits.setFlags(true, false)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newNotifier(commits)
	attempts, err := n.Notify(context.Background(), srv.URL, "c-1", 2, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	mu.Lock()
	defer mu.Unlock()
	if states[0] != notifier.StateInProgress || states[1] != notifier.StateSuccessful {
		t.Fatalf("expected [INPROGRESS SUCCESSFUL], got %v", states)
	}
}

func TestWebhookNotifier_CancelledDuringDelay(t *testing.T) {
	commits := &fakeCommits{commit: testCommit(false, true)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := newNotifier(commits).Notify(ctx, srv.URL, "c-1", 3, time.Minute)
		done <- err
	}()

	// Give the first attempt time to complete, then cancel the wait.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Notify did not return after cancellation")
	}
}
