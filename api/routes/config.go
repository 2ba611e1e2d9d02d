package routes

import (
	"blitzscan/internal/handlers"

	"github.com/gin-gonic/gin"
)

func InitConfigRoutes(router *gin.RouterGroup, h *handlers.ConfigHandler) {
	configRoutes := router.Group("/config")
	{
		configRoutes.GET("", h.GetScanModules)
	}
}
