package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict: record already exists")
	ErrInvalidSlug       = errors.New("project slug must be between 1 and 64 characters")
	ErrInvalidRevision   = errors.New("revision must be between 1 and 64 characters")
	ErrInvalidTarget     = errors.New("invalid webhook target: must be stash or github")
	ErrMissingRepository = errors.New("project has no repository URL configured")
	ErrMissingWebhookURL = errors.New("project has no webhook URL configured for target")
	ErrQueueFull         = errors.New("notification queue is at capacity")
)

// DeliveryError reports a webhook endpoint rejecting a status POST.
// It is terminal for the delivery: remaining attempts are abandoned.
// A zero StatusCode means the request never produced an HTTP response
// (transport failure), which is treated the same as a rejection.
type DeliveryError struct {
	CommitID   string
	Revision   string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("webhook delivery for commit %s (revision %s) failed: %v",
			e.CommitID, e.Revision, e.Err)
	}
	return fmt.Sprintf("webhook delivery for commit %s (revision %s) rejected with status %d",
		e.CommitID, e.Revision, e.StatusCode)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
