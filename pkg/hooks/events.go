package hooks

import (
	"context"

	"blitzscan/internal/models"
)

// ScanPublisher broadcasts a scan summary to other services.
type ScanPublisher interface {
	PublishScan(ctx context.Context, scan *models.Scan) error
}

type EventHook struct {
	publisher ScanPublisher
}

func NewEventHook(p ScanPublisher) *EventHook {
	return &EventHook{publisher: p}
}

func (e *EventHook) Name() string {
	return "events"
}

func (e *EventHook) Execute(ctx context.Context, scan *models.Scan) error {
	return e.publisher.PublishScan(ctx, scan)
}
