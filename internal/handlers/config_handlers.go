package handlers

import (
	"net/http"

	"blitzscan/internal/services"
	"blitzscan/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ConfigHandler struct {
	configService services.ConfigServiceMethods
	logger        *logger.Logger
}

func NewConfigHandler(configService services.ConfigServiceMethods, l *logger.Logger) *ConfigHandler {
	if l == nil {
		l = logger.Default()
	}
	return &ConfigHandler{configService: configService, logger: l}
}

func (h *ConfigHandler) GetScanModules(c *gin.Context) {
	c.JSON(http.StatusOK, h.configService.GetScanModules())
}
