package main

import (
	"campaign-dialer/internal/campaign"
	"campaign-dialer/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, manager *campaign.Manager) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	h := httpapi.Handlers{Campaigns: manager}

	// Operator surface.
	r.POST("/upload", h.Upload)
	r.GET("/status", h.Status)

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature validation in production.
	r.POST("/call-handler", h.CallHandler)
	r.POST("/process-speech", h.ProcessSpeech)
	r.POST("/call-status-callback", h.StatusCallback)
}
