// Package events publishes scan lifecycle events on NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blitzscan/internal/models"
	"blitzscan/pkg/logger"

	"github.com/nats-io/nats.go"
)

const (
	DefaultSubject = "blitzscan.scan"
	flushTimeout   = 5 * time.Second
)

// ScanEvent is the payload published for every terminal scan.
type ScanEvent struct {
	ID          string             `json:"id"`
	Owner       string             `json:"owner,omitempty"`
	URL         string             `json:"url"`
	Kind        models.ScanKind    `json:"scan_type"`
	Status      models.ScanStatus  `json:"status"`
	ParseStatus models.ParseStatus `json:"parse_status,omitempty"`
	Paths       int                `json:"paths"`
	OpenPorts   int                `json:"open_ports"`
	Error       string             `json:"error,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

func NewScanEvent(scan *models.Scan) ScanEvent {
	event := ScanEvent{
		ID:          scan.ID,
		Owner:       scan.Owner,
		URL:         scan.URL,
		Kind:        scan.Kind,
		Status:      scan.Status,
		ParseStatus: scan.ParseStatus,
		Paths:       len(scan.Results),
		Error:       scan.ErrorMessage,
		Timestamp:   scan.CreatedAt,
	}
	if scan.Ports != nil {
		event.OpenPorts = len(scan.Ports.OpenPorts)
	}
	return event
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

type Publisher struct {
	nc      conn
	subject string
	logger  *logger.Logger
}

// Connect dials the NATS server at url. Events go to "<subject>.<status>".
func Connect(url, subject string, l *logger.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("blitzscan"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := newPublisher(nc, subject, l)
	p.logger.WithFields(logger.Fields{"url": url, "subject": p.subject}).Info("Connected to NATS")
	return p, nil
}

func newPublisher(nc conn, subject string, l *logger.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if l == nil {
		l = logger.Default()
	}
	return &Publisher{nc: nc, subject: subject, logger: l}
}

// Subject returns the subject a scan with status is published on.
func (p *Publisher) Subject(status models.ScanStatus) string {
	return p.subject + "." + string(status)
}

func (p *Publisher) PublishScan(ctx context.Context, scan *models.Scan) error {
	data, err := json.Marshal(NewScanEvent(scan))
	if err != nil {
		return fmt.Errorf("failed to marshal scan event: %w", err)
	}

	subject := p.Subject(scan.Status)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish scan event: %w", err)
	}
	// nats refuses to flush without a deadline
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush scan event: %w", err)
	}

	p.logger.WithFields(logger.Fields{
		"scan_id": scan.ID,
		"subject": subject,
	}).Debug("Published scan event")
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
