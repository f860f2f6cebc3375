package handler_test

import (
	"context"

	"github.com/healthdesk/triage/internal/model"
	"github.com/healthdesk/triage/internal/service"
)

type mockModeration struct {
	submitQuestionFn        func(ctx context.Context, submitterID int64, text string) error
	handleActionFn          func(ctx context.Context, reviewerID int64, action model.Action) error
	handleReviewerMessageFn func(ctx context.Context, reviewerID int64, text string) error
	welcomeFn               func(ctx context.Context, chatID int64, isReviewer bool) error
}

func (m *mockModeration) SubmitQuestion(ctx context.Context, submitterID int64, text string) error {
	if m.submitQuestionFn != nil {
		return m.submitQuestionFn(ctx, submitterID, text)
	}
	return nil
}

func (m *mockModeration) HandleAction(ctx context.Context, reviewerID int64, action model.Action) error {
	if m.handleActionFn != nil {
		return m.handleActionFn(ctx, reviewerID, action)
	}
	return nil
}

func (m *mockModeration) HandleReviewerMessage(ctx context.Context, reviewerID int64, text string) error {
	if m.handleReviewerMessageFn != nil {
		return m.handleReviewerMessageFn(ctx, reviewerID, text)
	}
	return nil
}

func (m *mockModeration) Welcome(ctx context.Context, chatID int64, isReviewer bool) error {
	if m.welcomeFn != nil {
		return m.welcomeFn(ctx, chatID, isReviewer)
	}
	return nil
}

type mockReporter struct {
	pendingReportFn func(ctx context.Context, limit int32) ([]service.PendingRequest, error)
	deleteRequestFn func(ctx context.Context, requestID int64) error
}

func (m *mockReporter) PendingReport(ctx context.Context, limit int32) ([]service.PendingRequest, error) {
	if m.pendingReportFn != nil {
		return m.pendingReportFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockReporter) DeleteRequest(ctx context.Context, requestID int64) error {
	if m.deleteRequestFn != nil {
		return m.deleteRequestFn(ctx, requestID)
	}
	return nil
}
