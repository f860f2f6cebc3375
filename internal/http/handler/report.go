package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/healthdesk/triage/internal/service"
	"github.com/healthdesk/triage/internal/store"
)

// Reporter exposes the moderation backlog and its admin operations.
type Reporter interface {
	PendingReport(ctx context.Context, limit int32) ([]service.PendingRequest, error)
	DeleteRequest(ctx context.Context, requestID int64) error
}

type ReportHandler struct {
	svc Reporter
}

func NewReportHandler(svc Reporter) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// ListPending returns requests still awaiting generation or review.
func (h *ReportHandler) ListPending(c *gin.Context) {
	ctx := c.Request.Context()

	limit := int32(50)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = int32(n)
	}

	pending, err := h.svc.PendingReport(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build pending report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pending requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending": pending, "count": len(pending)})
}

// DeleteRequest purges a settled request. Active requests answer 409 so an
// operator cannot yank a question out from under a reviewer.
func (h *ReportHandler) DeleteRequest(c *gin.Context) {
	ctx := c.Request.Context()

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request id must be an integer"})
		return
	}

	switch err := h.svc.DeleteRequest(ctx, requestID); {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
	case errors.Is(err, service.ErrRequestActive):
		c.JSON(http.StatusConflict, gin.H{"error": "request is still being moderated"})
	case err != nil:
		slog.ErrorContext(ctx, "failed to delete request", "request_id", requestID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete request"})
	default:
		c.Status(http.StatusNoContent)
	}
}
