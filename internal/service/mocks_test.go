package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/healthdesk/triage/internal/model"
	"github.com/healthdesk/triage/internal/queue"
	"github.com/healthdesk/triage/internal/service"
	"github.com/healthdesk/triage/internal/store"
	"github.com/healthdesk/triage/internal/transport"
)

type mockRequestStore struct {
	getByIDFn          func(ctx context.Context, id int64) (*model.Request, error)
	getByIDForUpdateFn func(ctx context.Context, id int64) (*model.Request, error)
	createFn           func(ctx context.Context, req *model.Request) error
	updateStatusFn     func(ctx context.Context, id int64, status model.RequestStatus) error
	deleteFn           func(ctx context.Context, id int64) error
	listByStatusFn     func(ctx context.Context, status model.RequestStatus, limit int32) ([]model.Request, error)
}

func (m *mockRequestStore) GetByID(ctx context.Context, id int64) (*model.Request, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockRequestStore) GetByIDForUpdate(ctx context.Context, id int64) (*model.Request, error) {
	if m.getByIDForUpdateFn != nil {
		return m.getByIDForUpdateFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockRequestStore) Create(ctx context.Context, req *model.Request) error {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil
}

func (m *mockRequestStore) UpdateStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockRequestStore) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRequestStore) ListByStatus(ctx context.Context, status model.RequestStatus, limit int32) ([]model.Request, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, status, limit)
	}
	return nil, nil
}

type mockDraftStore struct {
	getByRequestIDFn   func(ctx context.Context, requestID int64) (*model.Draft, error)
	createFn           func(ctx context.Context, draft *model.Draft) error
	setEditedTextFn    func(ctx context.Context, requestID int64, text *string, reviewerID int64) error
	replaceGeneratedFn func(ctx context.Context, requestID int64, text string, reviewerID int64) error
	finalizeFn         func(ctx context.Context, requestID int64, reviewerID int64, decidedAt time.Time) error
}

func (m *mockDraftStore) GetByRequestID(ctx context.Context, requestID int64) (*model.Draft, error) {
	if m.getByRequestIDFn != nil {
		return m.getByRequestIDFn(ctx, requestID)
	}
	return nil, store.ErrNotFound
}

func (m *mockDraftStore) Create(ctx context.Context, draft *model.Draft) error {
	if m.createFn != nil {
		return m.createFn(ctx, draft)
	}
	return nil
}

func (m *mockDraftStore) SetEditedText(ctx context.Context, requestID int64, text *string, reviewerID int64) error {
	if m.setEditedTextFn != nil {
		return m.setEditedTextFn(ctx, requestID, text, reviewerID)
	}
	return nil
}

func (m *mockDraftStore) ReplaceGenerated(ctx context.Context, requestID int64, text string, reviewerID int64) error {
	if m.replaceGeneratedFn != nil {
		return m.replaceGeneratedFn(ctx, requestID, text, reviewerID)
	}
	return nil
}

func (m *mockDraftStore) Finalize(ctx context.Context, requestID int64, reviewerID int64, decidedAt time.Time) error {
	if m.finalizeFn != nil {
		return m.finalizeFn(ctx, requestID, reviewerID, decidedAt)
	}
	return nil
}

// fakeTxRunner hands the mock stores to the transactional closure. There is
// no real transaction; rollback semantics are asserted through which store
// calls happened before the error.
type fakeTxRunner struct {
	requests *mockRequestStore
	drafts   *mockDraftStore
}

func (f *fakeTxRunner) WithTx(_ context.Context, fn func(stores service.StoreProvider) error) error {
	return fn(f)
}

func (f *fakeTxRunner) Requests() store.RequestStore { return f.requests }
func (f *fakeTxRunner) Drafts() store.DraftStore     { return f.drafts }

type sentMessage struct {
	ChatID int64
	Text   string
}

// mockMessenger records every outbound call. Appends are mutex-guarded so
// concurrency tests can drive the service from multiple goroutines.
type mockMessenger struct {
	sendToSubmitterFn func(ctx context.Context, submitterID int64, text string) error

	mu          sync.Mutex
	sent        []sentMessage
	reviews     []transport.ReviewView
	editPrompts []transport.EditPromptView
	outcomes    []sentMessage
	advisories  []sentMessage
}

func (m *mockMessenger) SendToSubmitter(ctx context.Context, submitterID int64, text string) error {
	if m.sendToSubmitterFn != nil {
		if err := m.sendToSubmitterFn(ctx, submitterID, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChatID: submitterID, Text: text})
	return nil
}

func (m *mockMessenger) ShowReview(_ context.Context, _ int64, view transport.ReviewView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, view)
	return nil
}

func (m *mockMessenger) ShowEditPrompt(_ context.Context, _ int64, view transport.EditPromptView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editPrompts = append(m.editPrompts, view)
	return nil
}

func (m *mockMessenger) ShowOutcome(_ context.Context, reviewerID int64, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, sentMessage{ChatID: reviewerID, Text: text})
	return nil
}

func (m *mockMessenger) Advise(_ context.Context, reviewerID int64, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advisories = append(m.advisories, sentMessage{ChatID: reviewerID, Text: text})
	return nil
}

func (m *mockMessenger) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type mockProducer struct {
	enqueueFn func(ctx context.Context, job queue.GenerationJob) error
	jobs      []queue.GenerationJob
}

func (m *mockProducer) Enqueue(ctx context.Context, job queue.GenerationJob) error {
	if m.enqueueFn != nil {
		if err := m.enqueueFn(ctx, job); err != nil {
			return err
		}
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *mockProducer) Close() error { return nil }

type mockGenerator struct {
	generateFn func(ctx context.Context, question string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, question string) (string, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, question)
	}
	return "generated answer", nil
}

func (m *mockGenerator) Model() string { return "test-model" }
