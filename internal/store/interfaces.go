package store

import (
	"context"
	"errors"
	"time"

	"github.com/healthdesk/triage/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// RequestStore defines the contract for request data access
type RequestStore interface {
	GetByID(ctx context.Context, id int64) (*model.Request, error)
	// GetByIDForUpdate locks the request row for the duration of the enclosing
	// transaction. Decision paths use it so "read, decide, write" is one
	// critical section per request.
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Request, error)
	Create(ctx context.Context, req *model.Request) error
	UpdateStatus(ctx context.Context, id int64, status model.RequestStatus) error
	Delete(ctx context.Context, id int64) error // cascades to the draft
	ListByStatus(ctx context.Context, status model.RequestStatus, limit int32) ([]model.Request, error)
}

// DraftStore defines the contract for draft data access
type DraftStore interface {
	GetByRequestID(ctx context.Context, requestID int64) (*model.Draft, error)
	Create(ctx context.Context, draft *model.Draft) error
	// SetEditedText sets (or, with nil, clears) the reviewer's replacement
	// text and stamps the acting reviewer.
	SetEditedText(ctx context.Context, requestID int64, text *string, reviewerID int64) error
	// ReplaceGenerated overwrites the generated text, clears any reviewer
	// edit, and stamps the acting reviewer.
	ReplaceGenerated(ctx context.Context, requestID int64, text string, reviewerID int64) error
	// Finalize stamps the decision timestamp and deciding reviewer.
	Finalize(ctx context.Context, requestID int64, reviewerID int64, decidedAt time.Time) error
}
