// Package worker runs the draft generation loop: it consumes generation jobs
// from the Redis stream, calls the generation backend, and hands the result
// to the moderation service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/healthdesk/triage/common/logger"
	"github.com/healthdesk/triage/internal/genai"
	"github.com/healthdesk/triage/internal/queue"
	"github.com/healthdesk/triage/internal/store"
	"go.opentelemetry.io/otel/trace"
)

// Consumer is the queue surface the worker needs.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
	MaxAttempts() int
}

// Moderation is the service surface the worker drives.
type Moderation interface {
	LoadQuestion(ctx context.Context, requestID int64) (string, error)
	AttachDraft(ctx context.Context, requestID int64, generatedText string) error
	FailGeneration(ctx context.Context, requestID int64) error
}

type Worker struct {
	consumer  Consumer
	generator genai.Generator
	svc       Moderation

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, generator genai.Generator, svc Moderation) *Worker {
	return &Worker{
		consumer:  consumer,
		generator: generator,
		svc:       svc,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run consumes jobs until Stop is called or the context is cancelled. The
// read call blocks server-side, so the loop is idle-cheap.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "generation worker started")

	for {
		select {
		case <-w.stopCh:
			slog.InfoContext(ctx, "generation worker stopping")
			return
		case <-ctx.Done():
			slog.InfoContext(ctx, "generation worker context cancelled")
			return
		default:
		}

		if err := w.processOneBatch(ctx); err != nil {
			slog.ErrorContext(ctx, "batch processing failed", "error", err)
			// Back off so a dead Redis doesn't turn the loop hot.
			select {
			case <-time.After(2 * time.Second):
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// Stop signals the loop to exit and waits for the in-flight batch to finish.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading batch: %w", err)
	}

	for _, msg := range messages {
		w.processMessageSafe(ctx, msg)
	}
	return nil
}

// ProcessMessage handles one message outside the batch loop. The reclaimer
// uses it for messages claimed from dead consumers.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) {
	w.processMessageSafe(ctx, msg)
}

// processMessageSafe isolates a panic to the one message that caused it; the
// message goes to the DLQ and the loop keeps running.
func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic while processing generation job",
				"panic", r, "request_id", msg.Job.RequestID)
			if err := w.consumer.SendDLQ(ctx, msg, fmt.Sprintf("panic: %v", r)); err != nil {
				slog.ErrorContext(ctx, "failed to park panicked message", "error", err)
			}
		}
	}()

	w.processMessage(ctx, msg)
}

func (w *Worker) processMessage(ctx context.Context, msg queue.Message) {
	sc := logger.StartSpanFromTraceID(ctx, msg.Job.TraceID, "worker.generate_draft",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "triage.worker",
		RequestID: &msg.Job.RequestID,
	})

	slog.InfoContext(ctx, "processing generation job",
		"attempt", msg.Job.Attempt, "message_id", msg.ID)

	question, err := w.svc.LoadQuestion(ctx, msg.Job.RequestID)
	if err != nil {
		sc.RecordError(err)
		w.handleFailure(ctx, msg, err)
		return
	}

	generated, err := w.generator.Generate(ctx, question)
	if err != nil {
		sc.RecordError(err)
		w.handleFailure(ctx, msg, err)
		return
	}

	if err := w.svc.AttachDraft(ctx, msg.Job.RequestID, generated); err != nil {
		sc.RecordError(err)
		// Attach failures are storage-side and transient in the common case.
		w.handleFailure(ctx, msg, err)
		return
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to ack processed job", "error", err)
	}
}

func (w *Worker) handleFailure(ctx context.Context, msg queue.Message, cause error) {
	retryable := true
	var genErr *genai.GenerationError
	if errors.As(cause, &genErr) {
		retryable = genErr.Retryable
	}
	if errors.Is(cause, store.ErrNotFound) {
		// The request disappeared; retrying cannot help.
		retryable = false
	}

	if retryable && msg.Job.Attempt < w.consumer.MaxAttempts() {
		slog.WarnContext(ctx, "generation attempt failed, retrying",
			"attempt", msg.Job.Attempt, "error", cause)
		if err := w.consumer.Requeue(ctx, msg, cause.Error()); err != nil {
			slog.ErrorContext(ctx, "failed to requeue job", "error", err)
		}
		return
	}

	slog.ErrorContext(ctx, "generation attempts exhausted",
		"attempt", msg.Job.Attempt, "error", cause)
	if err := w.consumer.SendDLQ(ctx, msg, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "failed to park exhausted job", "error", err)
	}
	if err := w.svc.FailGeneration(ctx, msg.Job.RequestID); err != nil {
		slog.ErrorContext(ctx, "failed to fail request after exhausted attempts", "error", err)
	}
}
