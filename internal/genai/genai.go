// Package genai is the draft generation gateway: one prompt-in/text-out call
// against an OpenAI-compatible chat-completions endpoint. Callers only ever
// see generated text or a typed *GenerationError - a failure is never
// presented as an empty-but-valid answer.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Generator abstracts the text-generation backend. Generation is only ever
// attempted for questions that already passed the scope gate.
type Generator interface {
	Generate(ctx context.Context, question string) (string, error)
	Model() string
}

// GenerationError is the typed failure for any gateway problem: transport
// error, non-success status, or a malformed/empty payload.
type GenerationError struct {
	Reason    string
	Status    int // HTTP status when the backend answered, 0 otherwise
	Retryable bool
	Err       error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed (%s)", e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

type Config struct {
	APIKey      string
	BaseURL     string // OpenAI-compatible endpoint of the hosted service
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// systemPrompt keeps drafts short, neutral and free of the salutations the
// approve step adds itself.
const systemPrompt = `You are a health information assistant. Give short, informative answers to health questions.

Rules:
- Answer in 3-5 sentences at most.
- Start directly with the substance: no greetings, no names, no addressing the reader.
- Never give a diagnosis, prescribe treatment, or encourage self-medication.
- General information about healthy habits and common conditions is fine.
- Close by recommending a consultation with a doctor when the question concerns symptoms or treatment.

Answer format:
1. Direct answer to the question (1-2 sentences).
2. General context (1-2 sentences).
3. Recommendation to consult a doctor.`

type client struct {
	openai      openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

func New(cfg Config) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &client{
		openai:      openai.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

func (c *client) Generate(ctx context.Context, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(question),
		},
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Temperature: openai.Float(c.temperature),
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyError(ctx, err)
	}

	slog.DebugContext(ctx, "draft generation completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", &GenerationError{Reason: "no choices in response", Retryable: true}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &GenerationError{Reason: "empty completion", Retryable: true}
	}

	return text, nil
}

func (c *client) Model() string {
	return c.model
}

// classifyError maps backend failures onto the typed error, carrying the
// retry policy: rate limits, server errors and network failures are
// retryable; client errors and cancelled contexts are not.
func classifyError(ctx context.Context, err error) *GenerationError {
	if errors.Is(err, context.Canceled) {
		return &GenerationError{Reason: "cancelled", Retryable: false, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &GenerationError{Reason: "timed out", Retryable: true, Err: err}
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			slog.WarnContext(ctx, "generation rate limited", "status_code", apiErr.StatusCode)
			return &GenerationError{Reason: "rate limited", Status: apiErr.StatusCode, Retryable: true, Err: err}
		case apiErr.StatusCode >= 500:
			slog.WarnContext(ctx, "generation server error", "status_code", apiErr.StatusCode)
			return &GenerationError{Reason: "server error", Status: apiErr.StatusCode, Retryable: true, Err: err}
		default:
			slog.ErrorContext(ctx, "generation client error",
				"status_code", apiErr.StatusCode,
				"error_type", apiErr.Type,
				"error_code", apiErr.Code)
			return &GenerationError{Reason: "client error", Status: apiErr.StatusCode, Retryable: false, Err: err}
		}
	}

	// Network errors (no API response) are generally retryable
	slog.WarnContext(ctx, "generation network error", "error", err)
	return &GenerationError{Reason: "network error", Retryable: true, Err: err}
}
