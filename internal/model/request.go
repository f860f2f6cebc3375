package model

import "time"

// RequestStatus is the lifecycle state of a moderated request.
type RequestStatus string

const (
	// StatusWaiting - request stored, draft generation in flight or pending.
	StatusWaiting RequestStatus = "waiting"
	// StatusDrafted - a generated draft is attached and awaiting review.
	StatusDrafted RequestStatus = "drafted"
	// StatusApproved - a reviewer released the answer to the submitter.
	StatusApproved RequestStatus = "approved"
	// StatusRejected - a reviewer declined to answer.
	StatusRejected RequestStatus = "rejected"
	// StatusError - draft generation failed; the submitter was notified.
	StatusError RequestStatus = "error"
)

// IsFinal reports whether no further reviewer action is valid.
func (s RequestStatus) IsFinal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Request is one submitted question moving through moderation.
// RawText is kept verbatim for reviewer context and audit; CleanedText is the
// classifier's normalized form and is the only text ever sent to the
// generation backend.
type Request struct {
	ID          int64         `json:"id"`
	SubmitterID int64         `json:"submitter_id"`
	RawText     string        `json:"raw_text"`
	CleanedText string        `json:"cleaned_text"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}
