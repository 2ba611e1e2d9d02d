package routes

import (
	"blitzscan/internal/handlers"
	"blitzscan/internal/report"
	"blitzscan/internal/services"
	"blitzscan/pkg/engine"
	"blitzscan/pkg/logger"
	"blitzscan/pkg/parsers"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP API is built on. Patterns classifies
// paths in downloaded reports; nil means the built-in catalogue.
type Dependencies struct {
	ScanService   services.ScanServiceMethods
	ConfigService services.ConfigServiceMethods
	Queue         *engine.ScanQueue
	Logger        *logger.Logger
	Patterns      []parsers.SensitivePattern
}

func InitRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Logger))

	router.GET("/healthz", handlers.NewHealthHandler(deps.Queue).Health)

	api := router.Group("/api")
	{
		InitScanRoutes(api, handlers.NewScanHandler(deps.ScanService, deps.Logger, report.WithPatterns(deps.Patterns)))
		InitConfigRoutes(api, handlers.NewConfigHandler(deps.ConfigService, deps.Logger))
	}

	return router
}

func requestLogger(l *logger.Logger) gin.HandlerFunc {
	if l == nil {
		l = logger.Default()
	}
	return func(c *gin.Context) {
		c.Next()
		l.WithFields(logger.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		}).Debug("request handled")
	}
}
