package service

import (
	"fmt"

	"github.com/blaircullen/socialdesk/internal/models"
)

// ValidationError is local bad input: missing caption or schedule,
// malformed instant. It never moves a post's status.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// InvalidTransition reports a requested action that is not legal from
// the post's current status, so the caller can reconcile its view.
type InvalidTransition struct {
	PostID    string
	Current   models.PostStatus
	Requested string
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s post %s in status %s", e.Requested, e.PostID, e.Current)
}

// PublishFailure is an expected, retryable outcome: the platform
// publisher errored or timed out. It is recorded on the post before
// being returned.
type PublishFailure struct {
	PostID string
	Msg    string
}

func (e *PublishFailure) Error() string {
	return fmt.Sprintf("publish failed for post %s: %s", e.PostID, e.Msg)
}

type NotFound struct {
	Kind string
	ID   string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
