package service

import (
	"context"

	"github.com/healthdesk/triage/core/db"
	"github.com/healthdesk/triage/internal/store"
)

// StoreProvider exposes the stores needed by a transactional operation.
type StoreProvider interface {
	Requests() store.RequestStore
	Drafts() store.DraftStore
}

// TxRunner runs functions within a transaction and provides stores bound to
// that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(database *db.DB) TxRunner {
	return &dbTxRunner{db: database}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q db.Querier) error {
		return fn(store.NewStores(q))
	})
}
