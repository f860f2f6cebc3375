package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/healthdesk/triage/core/db"
	"github.com/healthdesk/triage/internal/model"
	"github.com/jackc/pgx/v5"
)

type requestStore struct {
	q db.Querier
}

func newRequestStore(q db.Querier) RequestStore {
	return &requestStore{q: q}
}

const requestColumns = `id, submitter_id, raw_text, cleaned_text, status, created_at`

func (s *requestStore) GetByID(ctx context.Context, id int64) (*model.Request, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (s *requestStore) GetByIDForUpdate(ctx context.Context, id int64) (*model.Request, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1 FOR UPDATE`, id)
	return scanRequest(row)
}

func (s *requestStore) Create(ctx context.Context, req *model.Request) error {
	row := s.q.QueryRow(ctx,
		`INSERT INTO requests (id, submitter_id, raw_text, cleaned_text, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+requestColumns,
		req.ID, req.SubmitterID, req.RawText, req.CleanedText, req.Status)

	created, err := scanRequest(row)
	if err != nil {
		return err
	}
	*req = *created
	return nil
}

func (s *requestStore) UpdateStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE requests SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("updating request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *requestStore) Delete(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
	return err
}

func (s *requestStore) ListByStatus(ctx context.Context, status model.RequestStatus, limit int32) ([]model.Request, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE status = $1 ORDER BY created_at ASC LIMIT $2`,
		status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Request
	for rows.Next() {
		var req model.Request
		if err := rows.Scan(&req.ID, &req.SubmitterID, &req.RawText, &req.CleanedText, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func scanRequest(row pgx.Row) (*model.Request, error) {
	var req model.Request
	err := row.Scan(&req.ID, &req.SubmitterID, &req.RawText, &req.CleanedText, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}
