package service

import "errors"

var (
	// ErrAlreadyHandled means an action token referenced a request that is
	// missing, not yet drafted, or already finalized. The action is refused,
	// never silently re-executed.
	ErrAlreadyHandled = errors.New("request already handled")

	// ErrDuplicateAction means the concurrency guard observed the same action
	// token already in flight.
	ErrDuplicateAction = errors.New("action already processing")

	// ErrNoEditingSession means a reviewer sent replacement text without an
	// open editing session.
	ErrNoEditingSession = errors.New("no editing session")

	// ErrRequestActive means a purge targeted a request still moving through
	// moderation.
	ErrRequestActive = errors.New("request still active")
)
