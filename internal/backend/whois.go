package backend

import (
	"context"
	"time"

	"blitzscan/internal/models"
	"blitzscan/pkg/logger"
	"blitzscan/pkg/parsers"
)

// WhoisLookup is the outcome of a retried WHOIS lookup. Exhausted is set
// when no attempt produced useful data.
type WhoisLookup struct {
	Record    models.DomainLookupRecord
	Raw       string
	Attempts  int
	Exhausted bool
	LastErr   error
}

// ParseStatus classifies the final payload. A lookup where every attempt
// failed counts as a parse failure.
func (l WhoisLookup) ParseStatus() models.ParseStatus {
	if l.Raw == "" && l.LastErr != nil {
		return models.ParseStatusFailed
	}
	return parsers.WhoisParseStatus(l.Record, l.Raw)
}

// LookupDomain returns the registration record for domain, retrying while
// the backend errors or answers without useful data.
func (c *Client) LookupDomain(ctx context.Context, domain string) (models.DomainLookupRecord, error) {
	lookup, err := c.Lookup(ctx, domain)
	return lookup.Record, err
}

// Lookup runs at most maxRetries+1 attempts with linear backoff. Backend
// failures never surface as errors; only context cancellation does. When
// every attempt failed the record carries just the domain.
func (c *Client) Lookup(ctx context.Context, domain string) (WhoisLookup, error) {
	result := WhoisLookup{Record: models.DomainLookupRecord{DomainName: domain}}
	succeeded := false

	for attempt := 0; ; attempt++ {
		result.Attempts = attempt + 1
		log := c.logger.WithFields(logger.Fields{"domain": domain, "attempt": attempt + 1})

		raw, err := c.Whois(ctx, domain)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		if err != nil {
			result.LastErr = err
			log.WithError(err).Warn("whois attempt failed")
		} else {
			record := parsers.ParseWhoisOutput(raw, domain)
			result.Record = record
			result.Raw = raw
			result.LastErr = nil
			succeeded = true

			if parsers.HasUsefulWhoisData(record, raw) {
				return result, nil
			}
			log.Warn("whois attempt returned no useful data")
		}

		if attempt >= c.maxRetries {
			break
		}

		delay := c.baseDelay * time.Duration(attempt+1)
		log.WithField("delay", delay.String()).Info("retrying whois lookup")
		if err := c.sleep(ctx, delay); err != nil {
			return result, err
		}
	}

	result.Exhausted = true
	if !succeeded {
		result.Record = models.DomainLookupRecord{DomainName: domain}
	}
	c.logger.WithFields(logger.Fields{
		"domain":   domain,
		"attempts": result.Attempts,
	}).Warn("whois retries exhausted")

	return result, nil
}
