// Package transport defines the chat-transport boundary. The moderation
// engine talks to submitters and reviewers exclusively through the Messenger
// contract and never assumes a delivery succeeded: every failure comes back
// as a typed *DeliveryError.
package transport

import (
	"context"
	"fmt"
)

// ReviewView is everything a transport needs to render a request for review:
// the question, the draft the action menu applies to, and how the draft came
// to be.
type ReviewView struct {
	RequestID int64
	Question  string
	DraftText string
	Edited    bool // draft text is a reviewer edit
	Refreshed bool // draft text was just regenerated
}

// EditPromptView is the in-place prompt shown while a reviewer is typing a
// replacement draft.
type EditPromptView struct {
	RequestID   int64
	CurrentText string
}

// Messenger is the outbound contract of the engine.
type Messenger interface {
	// SendToSubmitter delivers final text (answer, rejection, or advisory)
	// to the submitter's chat.
	SendToSubmitter(ctx context.Context, submitterID int64, text string) error

	// ShowReview renders the standard review view with the action menu,
	// replacing the reviewer's current message for this request when one
	// exists.
	ShowReview(ctx context.Context, reviewerID int64, view ReviewView) error

	// ShowEditPrompt replaces the review view with an edit prompt and a
	// cancel menu.
	ShowEditPrompt(ctx context.Context, reviewerID int64, view EditPromptView) error

	// ShowOutcome replaces the review view with a final banner and no menu.
	ShowOutcome(ctx context.Context, reviewerID int64, requestID int64, text string) error

	// Advise shows the reviewer a short advisory tied to the request
	// (duplicate tap, stale action, delivery failure).
	Advise(ctx context.Context, reviewerID int64, requestID int64, text string) error
}

// DeliveryError is the typed failure for any outbound message that could not
// be delivered.
type DeliveryError struct {
	ChatID int64
	Op     string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to chat %d failed (%s): %v", e.ChatID, e.Op, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
