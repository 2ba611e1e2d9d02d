// Package target validates user supplied scan targets and derives the domain
// the scanning backend expects.
package target

import (
	"fmt"
	"net/url"
	"strings"

	"blitzscan/pkg/errors"
)

// Target is a validated scan target.
type Target struct {
	URL    string
	Domain string
}

// Parse validates raw as an absolute http(s) URL and extracts its host.
func Parse(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("%w: empty url", errors.ErrInvalidTarget)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", errors.ErrInvalidTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Target{}, fmt.Errorf("%w: url must start with http:// or https://", errors.ErrInvalidTarget)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", errors.ErrInvalidTarget, raw)
	}

	return Target{URL: raw, Domain: u.Hostname()}, nil
}
