package store

import (
	"github.com/healthdesk/triage/core/db"
)

// Stores provides typed accessors bound to one querier. Bind to a pool for
// standalone operations or to a transaction via the service TxRunner.
type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Requests() RequestStore {
	return newRequestStore(s.q)
}

func (s *Stores) Drafts() DraftStore {
	return newDraftStore(s.q)
}
