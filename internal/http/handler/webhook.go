package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/healthdesk/triage/internal/http/dto"
	"github.com/healthdesk/triage/internal/model"
	"github.com/healthdesk/triage/internal/service"
)

// Moderation is the service surface the webhook drives.
type Moderation interface {
	SubmitQuestion(ctx context.Context, submitterID int64, text string) error
	HandleAction(ctx context.Context, reviewerID int64, action model.Action) error
	HandleReviewerMessage(ctx context.Context, reviewerID int64, text string) error
	Welcome(ctx context.Context, chatID int64, isReviewer bool) error
}

type WebhookHandler struct {
	svc         Moderation
	isReviewer  func(int64) bool
	secretToken string
}

func NewWebhookHandler(svc Moderation, isReviewer func(int64) bool, secretToken string) *WebhookHandler {
	return &WebhookHandler{
		svc:         svc,
		isReviewer:  isReviewer,
		secretToken: secretToken,
	}
}

// HandleUpdate is the single bot-API webhook endpoint. It always answers 200
// once the payload parses; a non-2xx would make the platform redeliver the
// update and re-trigger side effects that already happened.
func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	ctx := c.Request.Context()

	if h.secretToken != "" {
		if c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != h.secretToken {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook token"})
			return
		}
	}

	var update dto.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	default:
		slog.DebugContext(ctx, "ignoring unsupported update", "update_id", update.UpdateID)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WebhookHandler) handleMessage(ctx context.Context, msg *dto.Message) {
	if msg.From != nil && msg.From.IsBot {
		return
	}

	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	reviewer := h.isReviewer(chatID)

	if strings.HasPrefix(text, "/start") {
		if err := h.svc.Welcome(ctx, chatID, reviewer); err != nil {
			slog.ErrorContext(ctx, "failed to send welcome", "chat_id", chatID, "error", err)
		}
		return
	}

	var err error
	if reviewer {
		err = h.svc.HandleReviewerMessage(ctx, chatID, text)
	} else {
		err = h.svc.SubmitQuestion(ctx, chatID, text)
	}
	if errors.Is(err, service.ErrNoEditingSession) {
		// The reviewer already got a usage hint; nothing went wrong.
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle message", "chat_id", chatID, "error", err)
	}
}

func (h *WebhookHandler) handleCallback(ctx context.Context, cb *dto.CallbackQuery) {
	reviewerID := cb.From.ID
	if !h.isReviewer(reviewerID) {
		slog.WarnContext(ctx, "callback from non-reviewer ignored", "chat_id", reviewerID)
		return
	}

	action, err := model.ParseAction(cb.Data)
	if err != nil {
		slog.WarnContext(ctx, "malformed callback data ignored",
			"chat_id", reviewerID, "data", cb.Data, "error", err)
		return
	}

	err = h.svc.HandleAction(ctx, reviewerID, action)
	if errors.Is(err, service.ErrDuplicateAction) {
		// The guard suppressed a repeat tap and the reviewer was advised.
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle reviewer action",
			"chat_id", reviewerID, "action", action.Kind, "request_id", action.RequestID,
			"error", err)
	}
}
