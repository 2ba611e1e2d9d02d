package services

import (
	"fmt"

	"blitzscan/internal/models"
	"blitzscan/pkg/engine"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/logger"
)

// ScanStatusManager moves scans out of the running state. A scan that has
// reached a terminal state is never changed again.
type ScanStatusManager struct {
	logger *logger.Logger
}

func newScanStatusManager(l *logger.Logger) *ScanStatusManager {
	return &ScanStatusManager{logger: l}
}

func (m *ScanStatusManager) MarkFailed(scan *models.Scan, reason error) error {
	if err := m.checkRunning(scan); err != nil {
		return err
	}

	scan.Status = models.StatusFailed
	scan.ErrorMessage = "Unknown error"
	if reason != nil {
		scan.ErrorMessage = reason.Error()
	}

	m.logger.Error("Scan marked as failed", logger.Fields{
		"scan_id": scan.ID,
		"reason":  scan.ErrorMessage,
	})
	return nil
}

func (m *ScanStatusManager) MarkCompleted(scan *models.Scan, outcome engine.Outcome) error {
	if err := m.checkRunning(scan); err != nil {
		return err
	}

	outcome.Apply(scan)
	scan.Status = models.StatusCompleted

	m.logger.Info("Scan completed", logger.Fields{
		"scan_id":      scan.ID,
		"parse_status": scan.ParseStatus,
	})
	return nil
}

func (m *ScanStatusManager) checkRunning(scan *models.Scan) error {
	if scan == nil {
		return fmt.Errorf("%w: nil scan", errors.ErrScanNotFound)
	}
	if scan.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", errors.ErrScanTerminal, scan.ID, scan.Status)
	}
	return nil
}
