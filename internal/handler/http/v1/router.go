package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	incidents := api.Group("/incidents")
	{
		// Чтение открыто; выгрузка ограничена по частоте
		incidents.GET("", h.listIncidents)
		incidents.GET("/export", h.exportLimiter.Middleware(h.logger), h.exportIncidents)
		incidents.GET("/stats", h.getStats)
		incidents.GET("/:id", h.getIncident)

		// Изменения требуют API-ключ, если ключи заданы
		protected := incidents.Group("", APIKeyAuthMiddleware(h.cfg, h.logger))
		protected.POST("", h.createIncident)
		protected.POST("/_bulk_demo", h.bulkDemo)
		protected.PATCH("/:id", h.updateIncident)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
