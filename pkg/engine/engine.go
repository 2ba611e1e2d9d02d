// Package engine runs a single scan against the scanning backend and turns
// its raw output into structured results.
package engine

import (
	"context"
	"fmt"

	"blitzscan/internal/backend"
	"blitzscan/internal/models"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/logger"
	"blitzscan/pkg/parsers"
	"blitzscan/pkg/target"

	"github.com/sirupsen/logrus"
)

// Backend is the subset of the scanning backend client the engine needs.
type Backend interface {
	DirectoryFuzz(ctx context.Context, domain string) (string, error)
	PortScan(ctx context.Context, domain string) (string, error)
	Lookup(ctx context.Context, domain string) (backend.WhoisLookup, error)
}

type ScanRequest struct {
	Target target.Target
	Kind   models.ScanKind
}

// Outcome holds what a scan produced. Only the field matching the scan kind
// is populated.
type Outcome struct {
	Results     []models.FuzzResultRecord
	Ports       *models.PortScanResult
	Whois       *models.DomainLookupRecord
	ParseStatus models.ParseStatus
	Raw         string
}

// Apply copies the outcome onto scan.
func (o Outcome) Apply(scan *models.Scan) {
	if o.Results != nil {
		scan.Results = o.Results
	}
	scan.Ports = o.Ports
	scan.Whois = o.Whois
	scan.ParseStatus = o.ParseStatus
}

type engineOpts struct {
	logger              *logger.Logger
	placeholderFallback bool
	fuzzOptions         []parsers.FuzzOption
}

type OptFunc func(*engineOpts)

func WithLogger(l *logger.Logger) OptFunc {
	return func(o *engineOpts) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPlaceholderFallback makes fuzzing scans with no parsed rows report the
// single sample record instead of an empty list.
func WithPlaceholderFallback(enabled bool) OptFunc {
	return func(o *engineOpts) {
		o.placeholderFallback = enabled
	}
}

func WithFuzzOptions(opts ...parsers.FuzzOption) OptFunc {
	return func(o *engineOpts) {
		o.fuzzOptions = append(o.fuzzOptions, opts...)
	}
}

type ScanEngine struct {
	engineOpts
	backend Backend
}

func NewScanEngine(b Backend, opts ...OptFunc) *ScanEngine {
	o := engineOpts{logger: logger.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &ScanEngine{engineOpts: o, backend: b}
}

// Run dispatches req to the backend endpoint for its kind. Transport errors
// for fuzzing and port scans are returned; WHOIS failures degrade into an
// empty record instead.
func (e *ScanEngine) Run(ctx context.Context, req ScanRequest) (Outcome, error) {
	log := e.logger.WithFields(logger.Fields{
		"domain":    req.Target.Domain,
		"scan_kind": string(req.Kind),
	})

	switch req.Kind {
	case models.KindFuzzing:
		raw, err := e.backend.DirectoryFuzz(ctx, req.Target.Domain)
		if err != nil {
			return Outcome{}, fmt.Errorf("directory fuzzing %s: %w", req.Target.Domain, err)
		}
		parsed := parsers.ParseFuzzOutput(raw, e.fuzzOptions...)
		records := parsed.Records
		if e.placeholderFallback {
			records = parsed.RecordsOrPlaceholder()
		}
		log.WithFields(logrus.Fields{
			"records":      len(parsed.Records),
			"parse_status": parsed.Status,
		}).Info("fuzzing output parsed")
		return Outcome{Results: records, ParseStatus: parsed.Status, Raw: raw}, nil

	case models.KindNmap:
		raw, err := e.backend.PortScan(ctx, req.Target.Domain)
		if err != nil {
			return Outcome{}, fmt.Errorf("port scan %s: %w", req.Target.Domain, err)
		}
		parsed := parsers.ParsePortOutput(raw)
		log.WithFields(logrus.Fields{
			"open_ports":   len(parsed.OpenPorts),
			"parse_status": parsed.Status,
		}).Info("port scan output parsed")
		return Outcome{Ports: parsed.ToModel(), ParseStatus: parsed.Status, Raw: raw}, nil

	case models.KindWhois:
		lookup, err := e.backend.Lookup(ctx, req.Target.Domain)
		if err != nil {
			return Outcome{}, fmt.Errorf("whois %s: %w", req.Target.Domain, err)
		}
		record := lookup.Record
		log.WithFields(logrus.Fields{
			"attempts":  lookup.Attempts,
			"exhausted": lookup.Exhausted,
		}).Info("whois lookup finished")
		return Outcome{Whois: &record, ParseStatus: lookup.ParseStatus(), Raw: lookup.Raw}, nil
	}

	return Outcome{}, fmt.Errorf("%w: %q", errors.ErrUnknownScanKind, req.Kind)
}
