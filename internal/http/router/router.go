package router

import (
	"github.com/gin-gonic/gin"

	"github.com/healthdesk/triage/internal/http/handler"
)

type RouterConfig struct {
	// WebhookSecret is matched against the bot platform's secret token
	// header on every update. Empty disables the check.
	WebhookSecret string
	// IsReviewer reports whether a chat ID belongs to a configured reviewer.
	IsReviewer func(int64) bool
}

func SetupRoutes(router *gin.Engine, svc handler.Moderation, reporter handler.Reporter, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	webhookHandler := handler.NewWebhookHandler(svc, cfg.IsReviewer, cfg.WebhookSecret)
	router.POST("/webhook", webhookHandler.HandleUpdate)

	v1 := router.Group("/api/v1")
	{
		reportHandler := handler.NewReportHandler(reporter)
		v1.GET("/requests/pending", reportHandler.ListPending)
		v1.DELETE("/requests/:id", reportHandler.DeleteRequest)
	}
}
