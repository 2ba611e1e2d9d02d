package handlers

import (
	"fmt"
	"net/http"

	"blitzscan/internal/models"
	"blitzscan/internal/report"
	"blitzscan/internal/services"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ScanHandler struct {
	scanService services.ScanServiceMethods
	reportOpts  []report.Option
	logger      *logger.Logger
}

func NewScanHandler(scanService services.ScanServiceMethods, l *logger.Logger, reportOpts ...report.Option) *ScanHandler {
	if l == nil {
		l = logger.Default()
	}
	return &ScanHandler{scanService: scanService, reportOpts: reportOpts, logger: l}
}

func (h *ScanHandler) StartScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind JSON:", logger.Fields{"error": err})
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}

	h.logger.Info("Starting scan", logger.Fields{"scan_type": req.ScanType, "url": req.URL})
	scan, err := h.scanService.StartScan(c.Request.Context(), req.Owner, req.URL, models.ScanKind(req.ScanType))
	switch {
	case errors.Is(err, errors.ErrInvalidTarget):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Por favor ingresa una URL válida"})
		return
	case errors.Is(err, errors.ErrUnknownScanKind):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Unknown scan type %q", req.ScanType)})
		return
	case errors.Is(err, errors.ErrScanInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "A scan is already in progress"})
		return
	case err != nil:
		h.logger.Error("Failed to start scan:", logger.Fields{"error": err})
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start scan"})
		return
	}

	if req.Save && scan.Status == models.StatusCompleted {
		if err := h.scanService.SaveScan(c.Request.Context(), req.Owner, scan); err != nil {
			h.logger.Error("Failed to save scan:", logger.Fields{"error": err, "scan_id": scan.ID})
			c.JSON(statusFor(err), ErrorResponse{Error: "Failed to save scan"})
			return
		}
	}

	c.JSON(http.StatusOK, scan)
}

func (h *ScanHandler) ListScans(c *gin.Context) {
	scans, err := h.scanService.ListScans(c.Request.Context(), c.Query("owner"))
	if err != nil {
		h.logger.Error("Failed to list scans:", logger.Fields{"error": err})
		c.JSON(statusFor(err), ErrorResponse{Error: "Failed to list scans"})
		return
	}
	c.JSON(http.StatusOK, scans)
}

func (h *ScanHandler) GetScan(c *gin.Context) {
	scan, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, scan)
}

// DownloadReport streams the plain-text report as an attachment.
func (h *ScanHandler) DownloadReport(c *gin.Context) {
	scan, ok := h.lookup(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(scan)))
	c.Status(http.StatusOK)
	if err := report.Render(scan, h.reportOpts...).Render(c.Request.Context(), c.Writer); err != nil {
		h.logger.Error("Failed to render report", logger.Fields{"error": err, "scan_id": scan.ID})
	}
}

func (h *ScanHandler) DeleteScan(c *gin.Context) {
	scanID := c.Param("id")
	if err := h.scanService.DeleteScan(c.Request.Context(), c.Query("owner"), scanID); err != nil {
		status := statusFor(err)
		message := "Failed to delete scan"
		if status == http.StatusNotFound {
			message = "Scan not found"
		}
		h.logger.Error("Failed to delete scan:", logger.Fields{"error": err, "scan_id": scanID})
		c.JSON(status, ErrorResponse{Error: message})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ScanHandler) lookup(c *gin.Context) (*models.Scan, bool) {
	scanID := c.Param("id")
	scan, err := h.scanService.GetScan(c.Request.Context(), c.Query("owner"), scanID)
	if err == nil && scan == nil {
		err = errors.ErrScanNotFound
	}
	if err != nil {
		status := statusFor(err)
		message := "Failed to get scan"
		if status == http.StatusNotFound {
			message = "Scan not found"
		}
		h.logger.Error("Failed to get scan:", logger.Fields{"error": err, "scan_id": scanID})
		c.JSON(status, ErrorResponse{Error: message})
		return nil, false
	}
	return scan, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrScanNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrScanNotCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
