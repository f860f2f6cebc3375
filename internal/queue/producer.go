// Package queue moves generation jobs between the webhook server and the
// generation worker over a Redis stream with a consumer group and a
// dead-letter stream.
package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// GenerationJob asks the worker to produce a draft for one request.
type GenerationJob struct {
	RequestID int64
	Attempt   int
	TraceID   string
}

type Producer interface {
	Enqueue(ctx context.Context, job GenerationJob) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
}

func NewRedisProducer(client *redis.Client, stream string) Producer {
	return &redisProducer{
		client: client,
		stream: stream,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, job GenerationJob) error {
	attempt := job.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"request_id": job.RequestID,
		"attempt":    attempt,
	}
	if job.TraceID != "" {
		fields["trace_id"] = job.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue generation job: %w", err)
	}

	slog.InfoContext(ctx, "enqueued generation job",
		"request_id", job.RequestID, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
