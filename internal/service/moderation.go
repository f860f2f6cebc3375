// Package service implements the moderation workflow engine: the scope gate
// on submission, the request lifecycle state machine, the reviewer action
// dispatch with its concurrency guard, and the editing session overlay.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/healthdesk/triage/common/id"
	"github.com/healthdesk/triage/common/logger"
	"github.com/healthdesk/triage/internal/classify"
	"github.com/healthdesk/triage/internal/genai"
	"github.com/healthdesk/triage/internal/model"
	"github.com/healthdesk/triage/internal/queue"
	"github.com/healthdesk/triage/internal/store"
	"github.com/healthdesk/triage/internal/transport"
)

// ModerationService drives a request from submission through generation,
// review, and decision. All state transitions on a request happen inside a
// transaction holding a row lock on that request, so every decision path is
// one critical section per request.
type ModerationService struct {
	tx         TxRunner
	classifier *classify.Classifier
	generator  genai.Generator
	producer   queue.Producer
	messenger  transport.Messenger
	guard      ActionGuard
	sessions   *EditSessions
	reviewers  []int64
}

type ModerationConfig struct {
	Classifier *classify.Classifier
	Generator  genai.Generator
	Producer   queue.Producer
	Messenger  transport.Messenger
	Guard      ActionGuard
	Sessions   *EditSessions
	// Reviewers is the list of reviewer chat IDs to notify when a draft
	// becomes ready.
	Reviewers []int64
}

func NewModerationService(tx TxRunner, cfg ModerationConfig) *ModerationService {
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = classify.New(nil)
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewEditSessions()
	}
	guard := cfg.Guard
	if guard == nil {
		guard = NewMemoryGuard()
	}

	return &ModerationService{
		tx:         tx,
		classifier: classifier,
		generator:  cfg.Generator,
		producer:   cfg.Producer,
		messenger:  cfg.Messenger,
		guard:      guard,
		sessions:   sessions,
		reviewers:  cfg.Reviewers,
	}
}

// SubmitQuestion gates an incoming question and, when in scope, stores it and
// enqueues draft generation. Out-of-scope questions are refused without
// storing anything.
func (s *ModerationService) SubmitQuestion(ctx context.Context, submitterID int64, text string) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:   "triage.service.moderation",
		SubmitterID: &submitterID,
	})

	verdict := s.classifier.Classify(text)
	if !verdict.InScope {
		slog.InfoContext(ctx, "question refused by scope gate",
			"signals", verdict.Signals,
			"text_preview", logger.Truncate(text, 80))
		return s.messenger.SendToSubmitter(ctx, submitterID, msgScopeRejection)
	}

	req := &model.Request{
		ID:          id.New(),
		SubmitterID: submitterID,
		RawText:     text,
		CleanedText: verdict.Cleaned,
		Status:      model.StatusWaiting,
	}

	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		return stores.Requests().Create(ctx, req)
	})
	if err != nil {
		return fmt.Errorf("storing request: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{RequestID: &req.ID})
	slog.InfoContext(ctx, "question accepted for moderation",
		"signals", verdict.Signals)

	if err := s.producer.Enqueue(ctx, queue.GenerationJob{
		RequestID: req.ID,
		Attempt:   1,
		TraceID:   logger.TraceIDFromContext(ctx),
	}); err != nil {
		// The request exists but will never get a draft; fail it now rather
		// than leave the submitter waiting on a job that was never queued.
		slog.ErrorContext(ctx, "failed to enqueue generation job", "error", err)
		if failErr := s.FailGeneration(ctx, req.ID); failErr != nil {
			slog.ErrorContext(ctx, "failed to mark request as errored", "error", failErr)
		}
		return fmt.Errorf("enqueueing generation: %w", err)
	}

	return s.messenger.SendToSubmitter(ctx, submitterID, msgAccepted)
}

// LoadQuestion returns the cleaned question text for a request. The worker
// calls it before generation so the backend only ever sees normalized text.
func (s *ModerationService) LoadQuestion(ctx context.Context, requestID int64) (string, error) {
	var question string
	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		req, err := stores.Requests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		question = req.CleanedText
		return nil
	})
	if err != nil {
		return "", err
	}
	return question, nil
}

// AttachDraft records generated text for a waiting request and moves it to
// drafted, then notifies every reviewer. Called by the generation worker; a
// redelivered job for a request that already left waiting is a no-op.
func (s *ModerationService) AttachDraft(ctx context.Context, requestID int64, generatedText string) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "triage.service.moderation",
		RequestID: &requestID,
	})

	var req *model.Request
	attached := false

	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		var err error
		req, err = stores.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.StatusWaiting {
			slog.InfoContext(ctx, "skipping draft attach, request already progressed",
				"status", req.Status)
			return nil
		}

		if err := stores.Drafts().Create(ctx, &model.Draft{
			ID:            id.New(),
			RequestID:     requestID,
			GeneratedText: generatedText,
		}); err != nil {
			return fmt.Errorf("storing draft: %w", err)
		}
		if err := stores.Requests().UpdateStatus(ctx, requestID, model.StatusDrafted); err != nil {
			return err
		}
		attached = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("attaching draft: %w", err)
	}
	if !attached {
		return nil
	}

	view := transport.ReviewView{
		RequestID: requestID,
		Question:  req.RawText,
		DraftText: generatedText,
	}
	for _, reviewerID := range s.reviewers {
		if err := s.messenger.ShowReview(ctx, reviewerID, view); err != nil {
			// Reviewer delivery is fan-out; one unreachable reviewer must not
			// block the others or fail the attach.
			slog.ErrorContext(ctx, "failed to notify reviewer",
				"reviewer_id", reviewerID, "error", err)
		}
	}

	slog.InfoContext(ctx, "draft attached and reviewers notified",
		"reviewer_count", len(s.reviewers))
	return nil
}

// FailGeneration moves a waiting request to error and notifies the submitter.
// Terminal: called when generation attempts are exhausted or the job could
// not be queued at all.
func (s *ModerationService) FailGeneration(ctx context.Context, requestID int64) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "triage.service.moderation",
		RequestID: &requestID,
	})

	var submitterID int64
	failed := false

	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		req, err := stores.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.StatusWaiting {
			return nil
		}
		if err := stores.Requests().UpdateStatus(ctx, requestID, model.StatusError); err != nil {
			return err
		}
		submitterID = req.SubmitterID
		failed = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("failing generation: %w", err)
	}
	if !failed {
		return nil
	}

	slog.WarnContext(ctx, "request moved to error after generation failure")
	if err := s.messenger.SendToSubmitter(ctx, submitterID, msgGenerationFailed); err != nil {
		slog.ErrorContext(ctx, "failed to notify submitter of generation failure", "error", err)
	}
	return nil
}

// HandleAction dispatches a reviewer action. The concurrency guard admits at
// most one concurrent execution per action token; a duplicate gets an
// advisory and no state change.
func (s *ModerationService) HandleAction(ctx context.Context, reviewerID int64, action model.Action) error {
	actionName := string(action.Kind)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:  "triage.service.moderation",
		RequestID:  &action.RequestID,
		ReviewerID: &reviewerID,
		Action:     &actionName,
	})

	token := action.Token()
	admitted, err := s.guard.Begin(ctx, token)
	if err != nil {
		return fmt.Errorf("action guard: %w", err)
	}
	if !admitted {
		slog.InfoContext(ctx, "duplicate action suppressed")
		if adviseErr := s.messenger.Advise(ctx, reviewerID, action.RequestID, msgDuplicateAction); adviseErr != nil {
			slog.ErrorContext(ctx, "failed to advise reviewer", "error", adviseErr)
		}
		return ErrDuplicateAction
	}
	defer s.guard.End(ctx, token)

	switch action.Kind {
	case model.ActionApprove:
		err = s.decide(ctx, reviewerID, action.RequestID, model.StatusApproved)
	case model.ActionReject:
		err = s.decide(ctx, reviewerID, action.RequestID, model.StatusRejected)
	case model.ActionEdit:
		err = s.beginEdit(ctx, reviewerID, action.RequestID)
	case model.ActionCancelEdit:
		err = s.cancelEdit(ctx, reviewerID, action.RequestID)
	case model.ActionRegenerate:
		err = s.regenerate(ctx, reviewerID, action.RequestID)
	case model.ActionBack:
		err = s.backToReview(ctx, reviewerID, action.RequestID)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}

	if errors.Is(err, ErrAlreadyHandled) || errors.Is(err, store.ErrNotFound) {
		slog.InfoContext(ctx, "action refused, request not actionable")
		return s.messenger.Advise(ctx, reviewerID, action.RequestID, msgAlreadyHandled)
	}
	return err
}

// decide finalizes a drafted request. The submitter delivery happens inside
// the transaction: if the final message cannot be delivered the decision
// rolls back and the request stays drafted for another attempt.
func (s *ModerationService) decide(ctx context.Context, reviewerID, requestID int64, outcome model.RequestStatus) error {
	var outcomeText string

	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		req, err := stores.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.StatusDrafted {
			return ErrAlreadyHandled
		}

		draft, err := stores.Drafts().GetByRequestID(ctx, requestID)
		if err != nil {
			return err
		}
		if draft.IsDecided() {
			// A decided draft under a drafted request means the row was
			// finalized out of band; refuse rather than deliver twice.
			return ErrAlreadyHandled
		}

		var finalText string
		if outcome == model.StatusApproved {
			finalText = ComposeFinalAnswer(draft.EffectiveText())
			outcomeText = "✅ Answer published"
		} else {
			finalText = msgRejected
			outcomeText = "❌ Question rejected"
		}

		if err := stores.Requests().UpdateStatus(ctx, requestID, outcome); err != nil {
			return err
		}
		if err := stores.Drafts().Finalize(ctx, requestID, reviewerID, time.Now().UTC()); err != nil {
			return err
		}

		return s.messenger.SendToSubmitter(ctx, req.SubmitterID, finalText)
	})
	if err != nil {
		var deliveryErr *transport.DeliveryError
		if errors.As(err, &deliveryErr) {
			slog.ErrorContext(ctx, "decision rolled back, submitter unreachable", "error", err)
			if adviseErr := s.messenger.Advise(ctx, reviewerID, requestID,
				"⚠️ Could not deliver the answer; the request stays open. Try again."); adviseErr != nil {
				slog.ErrorContext(ctx, "failed to advise reviewer", "error", adviseErr)
			}
			return err
		}
		return err
	}

	s.sessions.Clear(reviewerID)
	slog.InfoContext(ctx, "request decided", "outcome", outcome)

	if err := s.messenger.ShowOutcome(ctx, reviewerID, requestID, outcomeText); err != nil {
		slog.ErrorContext(ctx, "failed to show outcome to reviewer", "error", err)
	}
	return nil
}

// beginEdit opens an editing session. No store mutation happens here; the
// session lives in memory until replacement text arrives.
func (s *ModerationService) beginEdit(ctx context.Context, reviewerID, requestID int64) error {
	var current string

	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		req, err := stores.Requests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.StatusDrafted {
			return ErrAlreadyHandled
		}
		draft, err := stores.Drafts().GetByRequestID(ctx, requestID)
		if err != nil {
			return err
		}
		current = draft.EffectiveText()
		return nil
	})
	if err != nil {
		return err
	}

	s.sessions.Start(reviewerID, requestID)
	slog.InfoContext(ctx, "editing session started")

	return s.messenger.ShowEditPrompt(ctx, reviewerID, transport.EditPromptView{
		RequestID:   requestID,
		CurrentText: current,
	})
}

// cancelEdit discards the reviewer's edit overlay and any stored edited text,
// then restores the review view with the generated draft.
func (s *ModerationService) cancelEdit(ctx context.Context, reviewerID, requestID int64) error {
	s.sessions.Clear(reviewerID)

	view, err := s.loadReviewView(ctx, requestID, func(stores StoreProvider) error {
		return stores.Drafts().SetEditedText(ctx, requestID, nil, reviewerID)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "editing session cancelled")
	return s.messenger.ShowReview(ctx, reviewerID, view)
}

// backToReview abandons the edit prompt without touching stored text.
func (s *ModerationService) backToReview(ctx context.Context, reviewerID, requestID int64) error {
	s.sessions.Clear(reviewerID)

	view, err := s.loadReviewView(ctx, requestID, nil)
	if err != nil {
		return err
	}
	return s.messenger.ShowReview(ctx, reviewerID, view)
}

// regenerate produces a fresh draft for the cleaned question. The generation
// call runs outside any transaction; on failure the existing draft stays
// untouched and the reviewer gets an advisory. On success the new text
// replaces the generated draft and clears any reviewer edit.
func (s *ModerationService) regenerate(ctx context.Context, reviewerID, requestID int64) error {
	if s.generator == nil {
		slog.ErrorContext(ctx, "no generation backend wired, refusing regenerate")
		return s.messenger.Advise(ctx, reviewerID, requestID,
			"⚠️ Regeneration is unavailable right now. The current draft is unchanged.")
	}

	var req *model.Request

	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		var err error
		req, err = stores.Requests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.StatusDrafted {
			return ErrAlreadyHandled
		}
		return nil
	})
	if err != nil {
		return err
	}

	generated, err := s.generator.Generate(ctx, req.CleanedText)
	if err != nil {
		slog.ErrorContext(ctx, "regeneration failed, keeping current draft", "error", err)
		return s.messenger.Advise(ctx, reviewerID, requestID,
			"⚠️ Regeneration failed. The current draft is unchanged.")
	}

	err = s.tx.WithTx(ctx, func(stores StoreProvider) error {
		// Recheck under lock: a decision may have landed while generating.
		fresh, err := stores.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if fresh.Status != model.StatusDrafted {
			return ErrAlreadyHandled
		}
		return stores.Drafts().ReplaceGenerated(ctx, requestID, generated, reviewerID)
	})
	if err != nil {
		return err
	}

	s.sessions.Clear(reviewerID)
	slog.InfoContext(ctx, "draft regenerated", "model", s.generator.Model())

	return s.messenger.ShowReview(ctx, reviewerID, transport.ReviewView{
		RequestID: requestID,
		Question:  req.RawText,
		DraftText: generated,
		Refreshed: true,
	})
}

// HandleReviewerMessage routes free text from a reviewer. With an open
// editing session the text becomes the edited draft; without one the
// reviewer gets a usage hint.
func (s *ModerationService) HandleReviewerMessage(ctx context.Context, reviewerID int64, text string) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:  "triage.service.moderation",
		ReviewerID: &reviewerID,
	})

	requestID, ok := s.sessions.Get(reviewerID)
	if !ok {
		if adviseErr := s.messenger.Advise(ctx, reviewerID, 0, msgReviewerHint); adviseErr != nil {
			slog.ErrorContext(ctx, "failed to advise reviewer", "error", adviseErr)
		}
		return ErrNoEditingSession
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{RequestID: &requestID})

	view, err := s.loadReviewView(ctx, requestID, func(stores StoreProvider) error {
		return stores.Drafts().SetEditedText(ctx, requestID, &text, reviewerID)
	})
	if errors.Is(err, ErrAlreadyHandled) || errors.Is(err, store.ErrNotFound) {
		// The request was decided (or regenerated away) while the reviewer
		// was typing. Drop the stale session instead of resurrecting it.
		s.sessions.Clear(reviewerID)
		return s.messenger.Advise(ctx, reviewerID, requestID, msgAlreadyHandled)
	}
	if err != nil {
		return err
	}

	s.sessions.Clear(reviewerID)
	slog.InfoContext(ctx, "draft edited by reviewer")

	view.Edited = true
	return s.messenger.ShowReview(ctx, reviewerID, view)
}

// Welcome greets a newly started chat with the role-appropriate onboarding
// text.
func (s *ModerationService) Welcome(ctx context.Context, chatID int64, isReviewer bool) error {
	text := welcomeSubmitter
	if isReviewer {
		text = welcomeReviewer
	}
	return s.messenger.SendToSubmitter(ctx, chatID, text)
}

// PendingRequest is one entry of the moderation backlog report.
type PendingRequest struct {
	RequestID int64               `json:"request_id"`
	Status    model.RequestStatus `json:"status"`
	Question  string              `json:"question"`
	Age       time.Duration       `json:"age"`
}

// PendingReport lists requests still awaiting generation or review, oldest
// first, for operational visibility.
func (s *ModerationService) PendingReport(ctx context.Context, limit int32) ([]PendingRequest, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "triage.service.moderation",
	})

	var pending []PendingRequest
	now := time.Now().UTC()

	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		for _, status := range []model.RequestStatus{model.StatusWaiting, model.StatusDrafted} {
			reqs, err := stores.Requests().ListByStatus(ctx, status, limit)
			if err != nil {
				return err
			}
			for _, req := range reqs {
				pending = append(pending, PendingRequest{
					RequestID: req.ID,
					Status:    req.Status,
					Question:  req.RawText,
					Age:       now.Sub(req.CreatedAt),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}

	return pending, nil
}

// DeleteRequest purges a settled request and its draft. Requests still
// waiting, drafted, or mid-edit are refused with ErrRequestActive.
func (s *ModerationService) DeleteRequest(ctx context.Context, requestID int64) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "triage.service.moderation",
		RequestID: &requestID,
	})

	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		req, err := stores.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.IsFinal() && req.Status != model.StatusError {
			return ErrRequestActive
		}
		return stores.Requests().Delete(ctx, requestID)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "request purged")
	return nil
}

// loadReviewView runs an optional mutation and reads back the request and
// draft as one transaction, returning the view the reviewer should see.
func (s *ModerationService) loadReviewView(ctx context.Context, requestID int64, mutate func(StoreProvider) error) (transport.ReviewView, error) {
	var view transport.ReviewView

	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		req, err := stores.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.StatusDrafted {
			return ErrAlreadyHandled
		}

		if mutate != nil {
			if err := mutate(stores); err != nil {
				return err
			}
		}

		draft, err := stores.Drafts().GetByRequestID(ctx, requestID)
		if err != nil {
			return err
		}

		view = transport.ReviewView{
			RequestID: requestID,
			Question:  req.RawText,
			DraftText: draft.EffectiveText(),
			Edited:    draft.IsEdited(),
		}
		return nil
	})
	return view, err
}
