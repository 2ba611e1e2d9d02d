package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"blitzscan/internal/history"
	"blitzscan/internal/models"
	"blitzscan/internal/report"
	"blitzscan/pkg/engine"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/hooks"
	"blitzscan/pkg/logger"
	"blitzscan/pkg/parsers"
	"blitzscan/pkg/target"
)

// anonymousRequester gates scans started without a signed-in user.
const anonymousRequester = "anonymous"

type ScanServiceMethods interface {
	StartScan(ctx context.Context, owner, rawURL string, kind models.ScanKind) (*models.Scan, error)
	SaveScan(ctx context.Context, owner string, scan *models.Scan) error
	ListScans(ctx context.Context, owner string) ([]models.Scan, error)
	GetScan(ctx context.Context, owner, id string) (*models.Scan, error)
	DeleteScan(ctx context.Context, owner, id string) error
	Report(ctx context.Context, owner, id string, w io.Writer) (string, error)
}

// Runner executes one scan request against the backend.
type Runner interface {
	Run(ctx context.Context, req engine.ScanRequest) (engine.Outcome, error)
}

type scanService struct {
	runner   Runner
	recorder history.Recorder
	queue    *engine.ScanQueue
	hooks    *hooks.Registry
	status   *ScanStatusManager
	patterns []parsers.SensitivePattern
	logger   *logger.Logger
	now      func() time.Time
}

type ServiceOption func(*scanService)

func WithQueue(q *engine.ScanQueue) ServiceOption {
	return func(s *scanService) {
		if q != nil {
			s.queue = q
		}
	}
}

func WithHooks(r *hooks.Registry) ServiceOption {
	return func(s *scanService) {
		if r != nil {
			s.hooks = r
		}
	}
}

// WithPatterns sets the sensitive path catalogue used in reports.
func WithPatterns(patterns []parsers.SensitivePattern) ServiceOption {
	return func(s *scanService) {
		s.patterns = patterns
	}
}

func WithLogger(l *logger.Logger) ServiceOption {
	return func(s *scanService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *scanService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewScanService(runner Runner, recorder history.Recorder, opts ...ServiceOption) ScanServiceMethods {
	s := &scanService{
		runner:   runner,
		recorder: recorder,
		logger:   logger.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.queue == nil {
		s.queue = engine.NewScanQueue(1, s.logger)
	}
	if s.hooks == nil {
		s.hooks = hooks.NewRegistry(s.logger)
	}
	s.status = newScanStatusManager(s.logger)
	return s
}

// StartScan runs a scan to completion and returns it in its terminal state.
// Completion hooks are dispatched in the background; see hooks.Registry.Wait.
// Backend failures produce a failed scan, not an error; errors are reserved
// for an invalid target or kind, a requester with a scan already in flight,
// and cancellation while waiting for a slot.
func (s *scanService) StartScan(ctx context.Context, owner, rawURL string, kind models.ScanKind) (*models.Scan, error) {
	parsed, ok := models.ParseScanKind(string(kind))
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownScanKind, kind)
	}
	kind = parsed

	t, err := target.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	requester := owner
	if requester == "" {
		requester = anonymousRequester
	}

	var scan *models.Scan
	err = s.queue.Execute(ctx, requester, func(ctx context.Context) error {
		scan = models.NewScan(owner, t.URL, kind, s.now())
		log := s.logger.WithScan(scan.ID, string(kind))
		log.WithField("domain", t.Domain).Info("Starting scan")

		outcome, runErr := s.runner.Run(ctx, engine.ScanRequest{Target: t, Kind: kind})
		if runErr != nil {
			return s.status.MarkFailed(scan, runErr)
		}
		return s.status.MarkCompleted(scan, outcome)
	})
	if err != nil {
		return nil, err
	}

	// hooks still run when the caller has gone away
	s.hooks.Dispatch(context.WithoutCancel(ctx), scan)
	return scan, nil
}

// SaveScan appends a completed scan to owner's history.
func (s *scanService) SaveScan(ctx context.Context, owner string, scan *models.Scan) error {
	if owner == "" {
		return errors.ErrNotAuthenticated
	}
	if scan == nil || scan.Status != models.StatusCompleted {
		return errors.ErrScanNotCompleted
	}
	if scan.Owner == "" {
		scan.Owner = owner
	}
	if err := s.recorder.Save(ctx, owner, scan); err != nil {
		return fmt.Errorf("save scan %s: %w", scan.ID, err)
	}
	return nil
}

func (s *scanService) ListScans(ctx context.Context, owner string) ([]models.Scan, error) {
	if owner == "" {
		return nil, errors.ErrNotAuthenticated
	}
	return s.recorder.List(ctx, owner)
}

func (s *scanService) GetScan(ctx context.Context, owner, id string) (*models.Scan, error) {
	if owner == "" {
		return nil, errors.ErrNotAuthenticated
	}
	return s.recorder.Get(ctx, owner, id)
}

func (s *scanService) DeleteScan(ctx context.Context, owner, id string) error {
	if owner == "" {
		return errors.ErrNotAuthenticated
	}
	return s.recorder.Delete(ctx, owner, id)
}

// Report writes the text report of a saved scan to w and returns its
// suggested filename.
func (s *scanService) Report(ctx context.Context, owner, id string, w io.Writer) (string, error) {
	scan, err := s.GetScan(ctx, owner, id)
	if err != nil {
		return "", err
	}
	if err := report.RenderAt(scan, s.now(), report.WithPatterns(s.patterns)).Render(ctx, w); err != nil {
		return "", fmt.Errorf("render report %s: %w", id, err)
	}
	return report.Filename(scan), nil
}
