package handlers

import (
	"net/http"

	"blitzscan/pkg/engine"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	queue *engine.ScanQueue
}

func NewHealthHandler(queue *engine.ScanQueue) *HealthHandler {
	return &HealthHandler{queue: queue}
}

func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.queue != nil {
		running, queued, slots := h.queue.GetStatus()
		body["scans"] = gin.H{"running": running, "queued": queued, "slots": slots}
	}
	c.JSON(http.StatusOK, body)
}
