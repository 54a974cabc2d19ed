package agentapi

import (
	"Vybe_AI/pkg/ratelimiter"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware is a placeholder for the actual authentication middleware.
// In a real application, this would validate a JWT and set the "userID" in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// For demonstration purposes, we'll use a static user ID.
		// Replace this with actual token validation logic.
		c.Set("userID", "user-12345")
		c.Next()
	}
}

// RateLimitMiddleware rejects requests once the limiter runs dry. A nil
// limiter disables limiting.
func RateLimitMiddleware(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// RegisterRoutes registers all the routes for the agent service.
func RegisterRoutes(router *gin.Engine, api *API, limiter ratelimiter.RateLimiter) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	agents := router.Group("/api/agents")
	agents.Use(AuthMiddleware(), RateLimitMiddleware(limiter))
	{
		agents.POST("/create", api.CreateAgentHandler)
		agents.POST("/start/:id", api.StartAgentHandler)
		agents.GET("/status/:id", api.GetAgentStatusHandler)
		agents.GET("/logs/:id", api.GetAgentLogsHandler)
		agents.GET("/list", api.ListAgentsHandler)
		agents.POST("/pause/:id", api.PauseAgentHandler)
		agents.POST("/resume/:id", api.ResumeAgentHandler)
		agents.POST("/stop/:id", api.StopAgentHandler)
		agents.GET("/runs", api.RunHistoryHandler)
		agents.GET("/runs/:id", api.RunRecordHandler)
		agents.GET("/available-tools", api.AvailableToolsHandler)
		agents.GET("/system-prompts", api.SystemPromptsHandler)
		agents.POST("/orchestrate/research-write", api.ResearchWriteHandler)
		agents.POST("/orchestrate/custom", api.CustomOrchestrationHandler)
		agents.GET("/orchestrate/:id/status", api.OrchestrationStatusHandler)
	}

	// WebSocket event feed
	ws := router.Group("/ws")
	ws.Use(AuthMiddleware())
	{
		ws.GET("/agents/subscribe", api.WebSocketHandler)
	}
}
