package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Проблемы
	issues := api.Group("/issues")
	{
		issues.GET("", h.listIssues)
		issues.GET("/stream", h.streamIssues)
		issues.GET("/:id", h.getIssue)
		if h.limiter != nil {
			issues.POST("", IssueRateLimitMiddleware(h.limiter, h.logger), h.createIssue)
		} else {
			issues.POST("", h.createIssue)
		}
	}

	// Группы и чат
	groups := api.Group("/groups")
	{
		groups.GET("", h.listGroups)
		groups.POST("", h.createGroup)
		groups.POST("/:id/join", h.joinGroup)
		groups.POST("/:id/leave", h.leaveGroup)
		groups.GET("/:id/messages", h.listMessages)
		groups.POST("/:id/messages", h.sendMessage)
		groups.GET("/:id/stream", h.streamMessages)
	}

	api.POST("/analyze", h.analyzeImage)
	api.POST("/users", h.createUser)

	// Администрирование только по API-ключу
	admin := api.Group("/admin", APIKeyAuthMiddleware(h.cfg, h.logger))
	{
		admin.DELETE("/issues/:id", h.deleteIssue)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
