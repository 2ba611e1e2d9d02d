package routes

import (
	"blitzscan/internal/handlers"

	"github.com/gin-gonic/gin"
)

func InitScanRoutes(router *gin.RouterGroup, h *handlers.ScanHandler) {
	scanRoutes := router.Group("/scans")
	{
		scanRoutes.POST("", h.StartScan)
		scanRoutes.GET("", h.ListScans)
		scanRoutes.GET("/:id", h.GetScan)
		scanRoutes.GET("/:id/report", h.DownloadReport)
		scanRoutes.DELETE("/:id", h.DeleteScan)
	}
}
