package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/healthdesk/triage/core/db"
	"github.com/healthdesk/triage/internal/model"
	"github.com/jackc/pgx/v5"
)

type draftStore struct {
	q db.Querier
}

func newDraftStore(q db.Querier) DraftStore {
	return &draftStore{q: q}
}

const draftColumns = `id, request_id, generated_text, edited_text, reviewer_id, decided_at, created_at`

func (s *draftStore) GetByRequestID(ctx context.Context, requestID int64) (*model.Draft, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE request_id = $1`, requestID)
	return scanDraft(row)
}

func (s *draftStore) Create(ctx context.Context, draft *model.Draft) error {
	row := s.q.QueryRow(ctx,
		`INSERT INTO drafts (id, request_id, generated_text)
		 VALUES ($1, $2, $3)
		 RETURNING `+draftColumns,
		draft.ID, draft.RequestID, draft.GeneratedText)

	created, err := scanDraft(row)
	if err != nil {
		return err
	}
	*draft = *created
	return nil
}

func (s *draftStore) SetEditedText(ctx context.Context, requestID int64, text *string, reviewerID int64) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE drafts SET edited_text = $2, reviewer_id = $3 WHERE request_id = $1`,
		requestID, text, reviewerID)
	if err != nil {
		return fmt.Errorf("updating edited text: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *draftStore) ReplaceGenerated(ctx context.Context, requestID int64, text string, reviewerID int64) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE drafts
		 SET generated_text = $2, edited_text = NULL, reviewer_id = $3
		 WHERE request_id = $1`,
		requestID, text, reviewerID)
	if err != nil {
		return fmt.Errorf("replacing generated text: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *draftStore) Finalize(ctx context.Context, requestID int64, reviewerID int64, decidedAt time.Time) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE drafts SET reviewer_id = $2, decided_at = $3
		 WHERE request_id = $1 AND decided_at IS NULL`,
		requestID, reviewerID, decidedAt)
	if err != nil {
		return fmt.Errorf("finalizing draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDraft(row pgx.Row) (*model.Draft, error) {
	var draft model.Draft
	err := row.Scan(&draft.ID, &draft.RequestID, &draft.GeneratedText, &draft.EditedText, &draft.ReviewerID, &draft.DecidedAt, &draft.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &draft, nil
}
