package routes

import (
	"passui/internal/api/handlers"
	"passui/internal/metrics"

	"github.com/gin-gonic/gin"
)

func AddRoutes(router *gin.Engine, h *handlers.Handler, m *metrics.Metrics) {
	addPageRoutes(router, h)
	addServiceRoutes(router, m)
}

func addPageRoutes(router *gin.Engine, h *handlers.Handler) {
	router.GET("/", h.Index)
	router.POST("/", handlers.CSRFRequired, h.ChangePassword)
}

func addServiceRoutes(router *gin.Engine, m *metrics.Metrics) {
	router.GET("/health", handlers.HealthCheck)
	if m != nil {
		router.GET("/metrics", m.Handler())
	}
}
