package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/healthdesk/triage/common/id"
	"github.com/healthdesk/triage/internal/model"
	"github.com/healthdesk/triage/internal/queue"
	"github.com/healthdesk/triage/internal/service"
	"github.com/healthdesk/triage/internal/store"
	"github.com/healthdesk/triage/internal/transport"
)

const (
	reviewerA   int64 = 100
	reviewerB   int64 = 200
	submitterID int64 = 555
	requestID   int64 = 42
)

var _ = Describe("ModerationService", func() {
	var (
		ctx       context.Context
		requests  *mockRequestStore
		drafts    *mockDraftStore
		tx        *fakeTxRunner
		messenger *mockMessenger
		producer  *mockProducer
		generator *mockGenerator
		sessions  *service.EditSessions
		guard     *service.MemoryGuard
		svc       *service.ModerationService
	)

	drafted := func() *model.Request {
		return &model.Request{
			ID:          requestID,
			SubmitterID: submitterID,
			RawText:     "Hello, what should I do about a headache?",
			CleanedText: "What should i do about a headache?",
			Status:      model.StatusDrafted,
			CreatedAt:   time.Now().UTC(),
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		requests = &mockRequestStore{}
		drafts = &mockDraftStore{}
		tx = &fakeTxRunner{requests: requests, drafts: drafts}
		messenger = &mockMessenger{}
		producer = &mockProducer{}
		generator = &mockGenerator{}
		sessions = service.NewEditSessions()
		guard = service.NewMemoryGuard()

		err := id.Init(1)
		Expect(err).NotTo(HaveOccurred())

		svc = service.NewModerationService(tx, service.ModerationConfig{
			Generator: generator,
			Producer:  producer,
			Messenger: messenger,
			Guard:     guard,
			Sessions:  sessions,
			Reviewers: []int64{reviewerA, reviewerB},
		})
	})

	Describe("SubmitQuestion", func() {
		Context("when the question is out of scope", func() {
			It("refuses without storing anything", func() {
				created := false
				requests.createFn = func(_ context.Context, _ *model.Request) error {
					created = true
					return nil
				}

				err := svc.SubmitQuestion(ctx, submitterID, "How much does a phone cost?")

				Expect(err).NotTo(HaveOccurred())
				Expect(created).To(BeFalse())
				Expect(producer.jobs).To(BeEmpty())
				Expect(messenger.sent).To(HaveLen(1))
				Expect(messenger.sent[0].ChatID).To(Equal(submitterID))
				Expect(messenger.sent[0].Text).To(ContainSubstring("questions about health"))
			})
		})

		Context("when the question is in scope", func() {
			It("stores a waiting request, enqueues generation, and acks the submitter", func() {
				var captured *model.Request
				requests.createFn = func(_ context.Context, req *model.Request) error {
					captured = req
					return nil
				}

				err := svc.SubmitQuestion(ctx, submitterID, "Hello doctor, what should I do about a headache?")

				Expect(err).NotTo(HaveOccurred())
				Expect(captured).NotTo(BeNil())
				Expect(captured.ID).NotTo(BeZero())
				Expect(captured.Status).To(Equal(model.StatusWaiting))
				Expect(captured.RawText).To(ContainSubstring("Hello doctor"))
				Expect(captured.CleanedText).NotTo(ContainSubstring("Hello"))
				Expect(captured.CleanedText).To(ContainSubstring("headache"))

				Expect(producer.jobs).To(HaveLen(1))
				Expect(producer.jobs[0].RequestID).To(Equal(captured.ID))
				Expect(producer.jobs[0].Attempt).To(Equal(1))

				Expect(messenger.sent).To(HaveLen(1))
				Expect(messenger.sent[0].Text).To(ContainSubstring("accepted for moderation"))
			})
		})

		Context("when enqueueing fails", func() {
			It("moves the stored request to error and notifies the submitter", func() {
				var captured *model.Request
				requests.createFn = func(_ context.Context, req *model.Request) error {
					captured = req
					return nil
				}
				requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
					return captured, nil
				}
				var newStatus model.RequestStatus
				requests.updateStatusFn = func(_ context.Context, _ int64, status model.RequestStatus) error {
					newStatus = status
					return nil
				}
				producer.enqueueFn = func(_ context.Context, _ queue.GenerationJob) error {
					return errors.New("redis down")
				}

				err := svc.SubmitQuestion(ctx, submitterID, "My fever and cough won't stop")

				Expect(err).To(HaveOccurred())
				Expect(newStatus).To(Equal(model.StatusError))
				Expect(messenger.sent).To(HaveLen(1))
				Expect(messenger.sent[0].Text).To(ContainSubstring("went wrong"))
			})
		})
	})

	Describe("AttachDraft", func() {
		Context("when the request is waiting", func() {
			It("stores the draft, moves to drafted, and notifies every reviewer", func() {
				req := drafted()
				req.Status = model.StatusWaiting
				requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
					return req, nil
				}
				var storedDraft *model.Draft
				drafts.createFn = func(_ context.Context, d *model.Draft) error {
					storedDraft = d
					return nil
				}
				var newStatus model.RequestStatus
				requests.updateStatusFn = func(_ context.Context, _ int64, status model.RequestStatus) error {
					newStatus = status
					return nil
				}

				err := svc.AttachDraft(ctx, requestID, "Drink water and rest.")

				Expect(err).NotTo(HaveOccurred())
				Expect(storedDraft).NotTo(BeNil())
				Expect(storedDraft.RequestID).To(Equal(requestID))
				Expect(storedDraft.GeneratedText).To(Equal("Drink water and rest."))
				Expect(newStatus).To(Equal(model.StatusDrafted))

				Expect(messenger.reviews).To(HaveLen(2))
				Expect(messenger.reviews[0].DraftText).To(Equal("Drink water and rest."))
				Expect(messenger.reviews[0].Edited).To(BeFalse())
			})
		})

		Context("when the request already progressed", func() {
			It("is a no-op", func() {
				requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
					return drafted(), nil
				}
				created := false
				drafts.createFn = func(_ context.Context, _ *model.Draft) error {
					created = true
					return nil
				}

				err := svc.AttachDraft(ctx, requestID, "late draft")

				Expect(err).NotTo(HaveOccurred())
				Expect(created).To(BeFalse())
				Expect(messenger.reviews).To(BeEmpty())
			})
		})
	})

	Describe("FailGeneration", func() {
		It("moves a waiting request to error and notifies the submitter", func() {
			req := drafted()
			req.Status = model.StatusWaiting
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return req, nil
			}
			var newStatus model.RequestStatus
			requests.updateStatusFn = func(_ context.Context, _ int64, status model.RequestStatus) error {
				newStatus = status
				return nil
			}

			err := svc.FailGeneration(ctx, requestID)

			Expect(err).NotTo(HaveOccurred())
			Expect(newStatus).To(Equal(model.StatusError))
			Expect(messenger.sent).To(HaveLen(1))
			Expect(messenger.sent[0].ChatID).To(Equal(submitterID))
		})

		It("leaves a drafted request untouched", func() {
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return drafted(), nil
			}
			updated := false
			requests.updateStatusFn = func(_ context.Context, _ int64, _ model.RequestStatus) error {
				updated = true
				return nil
			}

			err := svc.FailGeneration(ctx, requestID)

			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeFalse())
			Expect(messenger.sent).To(BeEmpty())
		})
	})

	Describe("HandleAction approve", func() {
		BeforeEach(func() {
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return drafted(), nil
			}
			drafts.getByRequestIDFn = func(_ context.Context, _ int64) (*model.Draft, error) {
				return &model.Draft{
					RequestID:     requestID,
					GeneratedText: "Drink water and rest.",
				}, nil
			}
		})

		It("finalizes the request and delivers the composed answer", func() {
			var newStatus model.RequestStatus
			requests.updateStatusFn = func(_ context.Context, _ int64, status model.RequestStatus) error {
				newStatus = status
				return nil
			}
			finalized := false
			drafts.finalizeFn = func(_ context.Context, _ int64, reviewerID int64, _ time.Time) error {
				finalized = true
				Expect(reviewerID).To(Equal(reviewerA))
				return nil
			}

			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionApprove, RequestID: requestID})

			Expect(err).NotTo(HaveOccurred())
			Expect(newStatus).To(Equal(model.StatusApproved))
			Expect(finalized).To(BeTrue())

			Expect(messenger.sent).To(HaveLen(1))
			Expect(messenger.sent[0].ChatID).To(Equal(submitterID))
			Expect(messenger.sent[0].Text).To(Equal(service.ComposeFinalAnswer("Drink water and rest.")))

			Expect(messenger.outcomes).To(HaveLen(1))
			Expect(messenger.outcomes[0].ChatID).To(Equal(reviewerA))
		})

		It("delivers the edited text when an edit exists", func() {
			edited := "A reviewer-polished answer."
			drafts.getByRequestIDFn = func(_ context.Context, _ int64) (*model.Draft, error) {
				return &model.Draft{
					RequestID:     requestID,
					GeneratedText: "Drink water and rest.",
					EditedText:    &edited,
				}, nil
			}

			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionApprove, RequestID: requestID})

			Expect(err).NotTo(HaveOccurred())
			Expect(messenger.sent).To(HaveLen(1))
			Expect(messenger.sent[0].Text).To(ContainSubstring(edited))
			Expect(messenger.sent[0].Text).NotTo(ContainSubstring("Drink water"))
		})

		It("keeps the request open when delivery to the submitter fails", func() {
			messenger.sendToSubmitterFn = func(_ context.Context, chatID int64, _ string) error {
				return &transport.DeliveryError{ChatID: chatID, Op: "sendMessage", Err: errors.New("blocked")}
			}

			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionApprove, RequestID: requestID})

			Expect(err).To(HaveOccurred())
			var deliveryErr *transport.DeliveryError
			Expect(errors.As(err, &deliveryErr)).To(BeTrue())

			Expect(messenger.outcomes).To(BeEmpty())
			Expect(messenger.advisories).To(HaveLen(1))
			Expect(messenger.advisories[0].Text).To(ContainSubstring("stays open"))
		})

		It("refuses when the request was already finalized", func() {
			req := drafted()
			req.Status = model.StatusApproved
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return req, nil
			}
			updated := false
			requests.updateStatusFn = func(_ context.Context, _ int64, _ model.RequestStatus) error {
				updated = true
				return nil
			}

			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionApprove, RequestID: requestID})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeFalse())
			Expect(messenger.sent).To(BeEmpty())
			Expect(messenger.advisories).To(HaveLen(1))
			Expect(messenger.advisories[0].Text).To(ContainSubstring("already handled"))
		})

		It("refuses when the draft was already finalized out of band", func() {
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return drafted(), nil
			}
			decidedAt := time.Now().UTC()
			drafts.getByRequestIDFn = func(_ context.Context, _ int64) (*model.Draft, error) {
				return &model.Draft{RequestID: requestID, GeneratedText: "Drink water.", DecidedAt: &decidedAt}, nil
			}
			updated := false
			requests.updateStatusFn = func(_ context.Context, _ int64, _ model.RequestStatus) error {
				updated = true
				return nil
			}

			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionApprove, RequestID: requestID})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeFalse())
			Expect(messenger.sent).To(BeEmpty())
			Expect(messenger.advisories).To(HaveLen(1))
		})

		It("suppresses a duplicate while the same action is in flight", func() {
			action := model.Action{Kind: model.ActionApprove, RequestID: requestID}

			admitted, err := guard.Begin(ctx, action.Token())
			Expect(err).NotTo(HaveOccurred())
			Expect(admitted).To(BeTrue())

			err = svc.HandleAction(ctx, reviewerB, action)

			Expect(err).To(MatchError(service.ErrDuplicateAction))
			Expect(messenger.sent).To(BeEmpty())
			Expect(messenger.advisories).To(HaveLen(1))
			Expect(messenger.advisories[0].ChatID).To(Equal(reviewerB))
			Expect(messenger.advisories[0].Text).To(ContainSubstring("already being processed"))

			guard.End(ctx, action.Token())
		})

		It("executes exactly one decision across concurrent taps", func() {
			// Stateful request: after the first decision lands, any later
			// tap sees the finalized status. A tap overlapping the first is
			// caught by the guard instead.
			var mu sync.Mutex
			status := model.StatusDrafted
			decisions := 0

			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				mu.Lock()
				defer mu.Unlock()
				req := drafted()
				req.Status = status
				return req, nil
			}
			requests.updateStatusFn = func(_ context.Context, _ int64, next model.RequestStatus) error {
				mu.Lock()
				defer mu.Unlock()
				status = next
				decisions++
				return nil
			}

			action := model.Action{Kind: model.ActionApprove, RequestID: requestID}

			var wg sync.WaitGroup
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					// A tap overlapping the winner is reported as a duplicate.
					err := svc.HandleAction(ctx, reviewerA, action)
					if err != nil {
						Expect(err).To(MatchError(service.ErrDuplicateAction))
					}
				}()
			}
			wg.Wait()

			Expect(decisions).To(Equal(1))
			Expect(messenger.sentCount()).To(Equal(1))
		})
	})

	Describe("HandleAction reject", func() {
		It("finalizes with the rejection template instead of the draft", func() {
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return drafted(), nil
			}
			drafts.getByRequestIDFn = func(_ context.Context, _ int64) (*model.Draft, error) {
				return &model.Draft{RequestID: requestID, GeneratedText: "Drink water and rest."}, nil
			}
			var newStatus model.RequestStatus
			requests.updateStatusFn = func(_ context.Context, _ int64, status model.RequestStatus) error {
				newStatus = status
				return nil
			}

			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionReject, RequestID: requestID})

			Expect(err).NotTo(HaveOccurred())
			Expect(newStatus).To(Equal(model.StatusRejected))
			Expect(messenger.sent).To(HaveLen(1))
			Expect(messenger.sent[0].Text).To(ContainSubstring("cannot answer"))
			Expect(messenger.sent[0].Text).NotTo(ContainSubstring("Drink water"))
		})
	})

	Describe("editing flow", func() {
		BeforeEach(func() {
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return drafted(), nil
			}
			requests.getByIDFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return drafted(), nil
			}
			drafts.getByRequestIDFn = func(_ context.Context, _ int64) (*model.Draft, error) {
				return &model.Draft{RequestID: requestID, GeneratedText: "Drink water and rest."}, nil
			}
		})

		It("opens a session and shows the edit prompt", func() {
			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionEdit, RequestID: requestID})

			Expect(err).NotTo(HaveOccurred())
			Expect(messenger.editPrompts).To(HaveLen(1))
			Expect(messenger.editPrompts[0].CurrentText).To(Equal("Drink water and rest."))

			openID, ok := sessions.Get(reviewerA)
			Expect(ok).To(BeTrue())
			Expect(openID).To(Equal(requestID))
		})

		It("applies reviewer text as the edited draft and closes the session", func() {
			var captured *string
			drafts.setEditedTextFn = func(_ context.Context, _ int64, text *string, reviewerID int64) error {
				captured = text
				Expect(reviewerID).To(Equal(reviewerA))
				return nil
			}

			sessions.Start(reviewerA, requestID)
			err := svc.HandleReviewerMessage(ctx, reviewerA, "A better answer.")

			Expect(err).NotTo(HaveOccurred())
			Expect(captured).NotTo(BeNil())
			Expect(*captured).To(Equal("A better answer."))

			_, ok := sessions.Get(reviewerA)
			Expect(ok).To(BeFalse())

			Expect(messenger.reviews).To(HaveLen(1))
			Expect(messenger.reviews[0].Edited).To(BeTrue())
		})

		It("hints a reviewer who types without an open session", func() {
			err := svc.HandleReviewerMessage(ctx, reviewerA, "stray text")

			Expect(err).To(MatchError(service.ErrNoEditingSession))
			Expect(messenger.advisories).To(HaveLen(1))
			Expect(messenger.advisories[0].Text).To(ContainSubstring("reviewer"))
		})

		It("drops a stale session when the request was decided mid-edit", func() {
			req := drafted()
			req.Status = model.StatusApproved
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return req, nil
			}

			sessions.Start(reviewerA, requestID)
			err := svc.HandleReviewerMessage(ctx, reviewerA, "too late")

			Expect(err).NotTo(HaveOccurred())
			_, ok := sessions.Get(reviewerA)
			Expect(ok).To(BeFalse())
			Expect(messenger.advisories).To(HaveLen(1))
		})

		It("clears the stored edit on cancel", func() {
			var captured *string = new(string)
			drafts.setEditedTextFn = func(_ context.Context, _ int64, text *string, _ int64) error {
				captured = text
				return nil
			}

			sessions.Start(reviewerA, requestID)
			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionCancelEdit, RequestID: requestID})

			Expect(err).NotTo(HaveOccurred())
			Expect(captured).To(BeNil())

			_, ok := sessions.Get(reviewerA)
			Expect(ok).To(BeFalse())
			Expect(messenger.reviews).To(HaveLen(1))
		})

		It("returns to the review view without mutating on back", func() {
			touched := false
			drafts.setEditedTextFn = func(_ context.Context, _ int64, _ *string, _ int64) error {
				touched = true
				return nil
			}

			sessions.Start(reviewerA, requestID)
			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionBack, RequestID: requestID})

			Expect(err).NotTo(HaveOccurred())
			Expect(touched).To(BeFalse())

			_, ok := sessions.Get(reviewerA)
			Expect(ok).To(BeFalse())
			Expect(messenger.reviews).To(HaveLen(1))
		})
	})

	Describe("HandleAction regenerate", func() {
		BeforeEach(func() {
			requests.getByIDFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return drafted(), nil
			}
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return drafted(), nil
			}
		})

		It("replaces the generated draft with the cleaned question's fresh answer", func() {
			var asked string
			generator.generateFn = func(_ context.Context, question string) (string, error) {
				asked = question
				return "A fresh answer.", nil
			}
			var replaced string
			drafts.replaceGeneratedFn = func(_ context.Context, _ int64, text string, reviewerID int64) error {
				replaced = text
				Expect(reviewerID).To(Equal(reviewerA))
				return nil
			}

			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionRegenerate, RequestID: requestID})

			Expect(err).NotTo(HaveOccurred())
			Expect(asked).To(Equal(drafted().CleanedText))
			Expect(replaced).To(Equal("A fresh answer."))

			Expect(messenger.reviews).To(HaveLen(1))
			Expect(messenger.reviews[0].Refreshed).To(BeTrue())
			Expect(messenger.reviews[0].DraftText).To(Equal("A fresh answer."))
		})

		It("keeps the current draft when generation fails", func() {
			generator.generateFn = func(_ context.Context, _ string) (string, error) {
				return "", fmt.Errorf("backend unavailable")
			}
			replaced := false
			drafts.replaceGeneratedFn = func(_ context.Context, _ int64, _ string, _ int64) error {
				replaced = true
				return nil
			}

			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionRegenerate, RequestID: requestID})

			Expect(err).NotTo(HaveOccurred())
			Expect(replaced).To(BeFalse())
			Expect(messenger.advisories).To(HaveLen(1))
			Expect(messenger.advisories[0].Text).To(ContainSubstring("unchanged"))
		})

		It("refuses the action when no generation backend is wired", func() {
			bare := service.NewModerationService(tx, service.ModerationConfig{
				Producer:  producer,
				Messenger: messenger,
				Guard:     service.NewMemoryGuard(),
				Reviewers: []int64{reviewerA, reviewerB},
			})
			replaced := false
			drafts.replaceGeneratedFn = func(_ context.Context, _ int64, _ string, _ int64) error {
				replaced = true
				return nil
			}

			var err error
			Expect(func() {
				err = bare.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionRegenerate, RequestID: requestID})
			}).NotTo(Panic())

			Expect(err).NotTo(HaveOccurred())
			Expect(replaced).To(BeFalse())
			Expect(messenger.advisories).To(HaveLen(1))
			Expect(messenger.advisories[0].Text).To(ContainSubstring("unavailable"))
		})
	})

	Describe("PendingReport", func() {
		It("lists waiting and drafted requests with their age", func() {
			created := time.Now().UTC().Add(-30 * time.Minute)
			requests.listByStatusFn = func(_ context.Context, status model.RequestStatus, _ int32) ([]model.Request, error) {
				if status == model.StatusWaiting {
					return []model.Request{{ID: 1, Status: status, CleanedText: "q1", CreatedAt: created}}, nil
				}
				return []model.Request{{ID: 2, Status: status, CleanedText: "q2", CreatedAt: created}}, nil
			}

			pending, err := svc.PendingReport(ctx, 50)

			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(2))
			Expect(pending[0].Status).To(Equal(model.StatusWaiting))
			Expect(pending[1].Status).To(Equal(model.StatusDrafted))
			Expect(pending[0].Age).To(BeNumerically("~", 30*time.Minute, time.Minute))
		})
	})

	Describe("DeleteRequest", func() {
		It("purges a settled request", func() {
			req := drafted()
			req.Status = model.StatusApproved
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return req, nil
			}
			deleted := false
			requests.deleteFn = func(_ context.Context, id int64) error {
				Expect(id).To(Equal(requestID))
				deleted = true
				return nil
			}

			Expect(svc.DeleteRequest(ctx, requestID)).To(Succeed())
			Expect(deleted).To(BeTrue())
		})

		It("purges a request whose generation failed", func() {
			req := drafted()
			req.Status = model.StatusError
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return req, nil
			}
			requests.deleteFn = func(_ context.Context, _ int64) error { return nil }

			Expect(svc.DeleteRequest(ctx, requestID)).To(Succeed())
		})

		It("refuses a request still under moderation", func() {
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return drafted(), nil
			}
			deleted := false
			requests.deleteFn = func(_ context.Context, _ int64) error {
				deleted = true
				return nil
			}

			err := svc.DeleteRequest(ctx, requestID)

			Expect(err).To(MatchError(service.ErrRequestActive))
			Expect(deleted).To(BeFalse())
		})

		It("propagates not found", func() {
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return nil, store.ErrNotFound
			}

			Expect(svc.DeleteRequest(ctx, 999)).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("missing requests", func() {
		It("advises instead of failing when the request is gone", func() {
			requests.getByIDForUpdateFn = func(_ context.Context, _ int64) (*model.Request, error) {
				return nil, store.ErrNotFound
			}

			err := svc.HandleAction(ctx, reviewerA, model.Action{Kind: model.ActionApprove, RequestID: 999})

			Expect(err).NotTo(HaveOccurred())
			Expect(messenger.advisories).To(HaveLen(1))
		})
	})
})
