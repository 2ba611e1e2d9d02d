package hooks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"blitzscan/internal/models"
	"blitzscan/internal/notification"
	"blitzscan/pkg/logger"
	"blitzscan/pkg/parsers"
)

// FindingsNotifierHook sends one alert per sensitive path a fuzzing scan
// uncovered.
type FindingsNotifierHook struct {
	sender   Sender
	patterns []parsers.SensitivePattern
	workers  int
	interval time.Duration
	logger   *logger.Logger
}

type FindingsOption func(*FindingsNotifierHook)

// WithPatterns replaces the built-in sensitive path catalogue.
func WithPatterns(patterns []parsers.SensitivePattern) FindingsOption {
	return func(h *FindingsNotifierHook) {
		h.patterns = patterns
	}
}

// WithInterval sets the pause each worker takes between messages.
func WithInterval(d time.Duration) FindingsOption {
	return func(h *FindingsNotifierHook) {
		h.interval = d
	}
}

func WithHookLogger(l *logger.Logger) FindingsOption {
	return func(h *FindingsNotifierHook) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewFindingsNotifierHook(sender Sender, opts ...FindingsOption) *FindingsNotifierHook {
	h := &FindingsNotifierHook{
		sender:   sender,
		workers:  3,
		interval: 500 * time.Millisecond,
		logger:   logger.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (n *FindingsNotifierHook) Name() string {
	return "findings_notifier"
}

func (n *FindingsNotifierHook) Execute(ctx context.Context, scan *models.Scan) error {
	if scan.Kind != models.KindFuzzing || scan.Status != models.StatusCompleted {
		return nil
	}

	all := parsers.FindSensitive(scan.Results, n.patterns)
	if len(all) == 0 {
		return nil
	}

	findings := make(chan parsers.SensitiveFinding)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)

	for i := 0; i < n.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for finding := range findings {
				if err := n.sender.Send(n.buildFindingMessage(scan, finding)); err != nil {
					n.logger.WithFields(logger.Fields{
						"path":  finding.Record.PathFound,
						"error": err,
					}).Error("Failed to send finding notification")
					mu.Lock()
					failed++
					mu.Unlock()
				}
				if n.interval > 0 {
					time.Sleep(n.interval)
				}
			}
		}()
	}

feed:
	for _, finding := range all {
		if strings.EqualFold(finding.Pattern.Severity, "info") {
			continue
		}
		select {
		case findings <- finding:
		case <-ctx.Done():
			break feed
		}
	}
	close(findings)
	wg.Wait()

	if failed > 0 {
		return fmt.Errorf("%d of %d finding notifications failed", failed, len(all))
	}
	return ctx.Err()
}

func (n *FindingsNotifierHook) buildFindingMessage(scan *models.Scan, finding parsers.SensitiveFinding) notification.Message {
	severity := strings.ToLower(finding.Pattern.Severity)
	return notification.Message{
		Title:       fmt.Sprintf("%s %s", parsers.GetSeverityEmoji(severity), finding.Pattern.Description),
		Description: fmt.Sprintf("**Ruta:** `%s`\n**Objetivo:** `%s`", finding.Record.PathFound, scan.URL),
		Severity:    severity,
		Fields: map[string]string{
			"Severity": strings.ToUpper(severity),
			"Category": finding.Pattern.Category,
			"Status":   strconv.Itoa(finding.Record.HTTPStatus),
		},
	}
}
