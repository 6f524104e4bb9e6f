package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует маршруты API
func RegisterRoutes(router *gin.Engine, h *Handler, aiHandler *AIHandler) {
	router.POST("/ingest", h.Ingest)

	router.GET("/dashboard/:user", h.GetDashboard)
	router.GET("/dashboard/:user/pdf", h.GetDashboardPDF)

	router.GET("/analyze/:user", aiHandler.Analyze)

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
