package service

import "sync"

// EditSessions maps a reviewer to the request they are currently editing.
// One overlay per reviewer; starting a new edit silently replaces a stale
// one. Entries are volatile - a restart loses in-progress edits without
// corruption, because no store mutation happens until the replacement text is
// actually submitted.
type EditSessions struct {
	mu         sync.RWMutex
	byReviewer map[int64]int64
}

func NewEditSessions() *EditSessions {
	return &EditSessions{byReviewer: make(map[int64]int64)}
}

func (s *EditSessions) Start(reviewerID, requestID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byReviewer[reviewerID] = requestID
}

func (s *EditSessions) Get(reviewerID int64) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	requestID, ok := s.byReviewer[reviewerID]
	return requestID, ok
}

func (s *EditSessions) Clear(reviewerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byReviewer, reviewerID)
}
