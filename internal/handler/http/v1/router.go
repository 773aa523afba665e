package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршруты инцидентов; ключ API проверяется, только если ключи заданы
	incidents := api.Group("/incidents")
	if len(h.cfg.APIKeys) > 0 {
		incidents.Use(APIKeyAuthMiddleware(h.cfg, h.logger))
	}
	{
		incidents.POST("", h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/stats/summary", h.getSummary)
		incidents.GET("/:id", h.getIncident)
		incidents.PATCH("/:id", h.updateIncident)
	}

	api.GET("/classification/overview", h.classificationOverview)

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
