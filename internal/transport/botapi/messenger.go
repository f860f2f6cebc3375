package botapi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/healthdesk/triage/internal/model"
	"github.com/healthdesk/triage/internal/transport"
)

type msgKey struct {
	reviewerID int64
	requestID  int64
}

// Messenger implements transport.Messenger on the bot API. It remembers the
// message ID of each reviewer's view per request so edit prompts, refreshed
// drafts and outcome banners replace the view in place instead of stacking
// new messages.
type Messenger struct {
	client *Client

	mu   sync.Mutex
	refs map[msgKey]int64
}

func NewMessenger(client *Client) *Messenger {
	return &Messenger{
		client: client,
		refs:   make(map[msgKey]int64),
	}
}

func (m *Messenger) SendToSubmitter(ctx context.Context, submitterID int64, text string) error {
	if _, err := m.client.SendMessage(ctx, submitterID, text, nil); err != nil {
		return &transport.DeliveryError{ChatID: submitterID, Op: "send_to_submitter", Err: err}
	}
	return nil
}

func (m *Messenger) ShowReview(ctx context.Context, reviewerID int64, view transport.ReviewView) error {
	text := formatReview(view)
	kb := reviewKeyboard(view.RequestID)
	return m.showOrEdit(ctx, reviewerID, view.RequestID, "show_review", text, kb)
}

func (m *Messenger) ShowEditPrompt(ctx context.Context, reviewerID int64, view transport.EditPromptView) error {
	text := fmt.Sprintf(
		"✏️ Editing (request %d)\n\nCurrent answer:\n────────────────────\n%s\n────────────────────\n\nSend the corrected answer text:",
		view.RequestID, view.CurrentText)
	kb := editKeyboard(view.RequestID)
	return m.showOrEdit(ctx, reviewerID, view.RequestID, "show_edit_prompt", text, kb)
}

func (m *Messenger) ShowOutcome(ctx context.Context, reviewerID int64, requestID int64, text string) error {
	if err := m.showOrEdit(ctx, reviewerID, requestID, "show_outcome", text, nil); err != nil {
		return err
	}
	// The moderation view is finished; forget its message ref.
	m.mu.Lock()
	delete(m.refs, msgKey{reviewerID: reviewerID, requestID: requestID})
	m.mu.Unlock()
	return nil
}

func (m *Messenger) Advise(ctx context.Context, reviewerID int64, requestID int64, text string) error {
	if _, err := m.client.SendMessage(ctx, reviewerID, text, nil); err != nil {
		return &transport.DeliveryError{ChatID: reviewerID, Op: "advise", Err: err}
	}
	return nil
}

// showOrEdit edits the tracked message for (reviewer, request) when one
// exists, and falls back to sending a fresh message - the tracked ID may be
// stale after a process restart.
func (m *Messenger) showOrEdit(ctx context.Context, reviewerID, requestID int64, op, text string, kb *InlineKeyboard) error {
	key := msgKey{reviewerID: reviewerID, requestID: requestID}

	m.mu.Lock()
	ref, ok := m.refs[key]
	m.mu.Unlock()

	if ok {
		err := m.client.EditMessageText(ctx, reviewerID, ref, text, kb)
		if err == nil {
			return nil
		}
		slog.DebugContext(ctx, "message edit failed, sending fresh message",
			"reviewer_id", reviewerID, "request_id", requestID, "error", err)
	}

	msgID, err := m.client.SendMessage(ctx, reviewerID, text, kb)
	if err != nil {
		return &transport.DeliveryError{ChatID: reviewerID, Op: op, Err: err}
	}

	m.mu.Lock()
	m.refs[key] = msgID
	m.mu.Unlock()
	return nil
}

func formatReview(view transport.ReviewView) string {
	header := "🆕 Question for moderation"
	if view.Refreshed {
		header = "🆕 Newly generated answer"
	}

	label := "🤖 AI answer:"
	if view.Edited {
		label = "🤖 AI answer (edited):"
	}

	return fmt.Sprintf("%s (request %d)\n\n❓ Submitter's question:\n%s\n\n%s\n%s",
		header, view.RequestID, view.Question, label, view.DraftText)
}

func reviewKeyboard(requestID int64) *InlineKeyboard {
	return &InlineKeyboard{Rows: [][]Button{
		{
			{Text: "✅ Publish", CallbackData: callbackData(model.ActionApprove, requestID)},
			{Text: "✏️ Edit", CallbackData: callbackData(model.ActionEdit, requestID)},
		},
		{
			{Text: "🔄 Regenerate", CallbackData: callbackData(model.ActionRegenerate, requestID)},
			{Text: "❌ Reject", CallbackData: callbackData(model.ActionReject, requestID)},
		},
	}}
}

func editKeyboard(requestID int64) *InlineKeyboard {
	return &InlineKeyboard{Rows: [][]Button{
		{{Text: "❌ Cancel editing", CallbackData: callbackData(model.ActionCancelEdit, requestID)}},
		{{Text: "⬅️ Back to menu", CallbackData: callbackData(model.ActionBack, requestID)}},
	}}
}

func callbackData(kind model.ActionKind, requestID int64) string {
	return fmt.Sprintf("%s:%d", kind, requestID)
}
