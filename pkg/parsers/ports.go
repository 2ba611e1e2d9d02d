package parsers

import (
	"regexp"
	"strings"

	"blitzscan/internal/models"
)

const ServiceUnknown = "Desconocido"

// portLine accepts plain scanner lines ("22/tcp open ssh OpenSSH_8.2") and
// the decorated form with a leading status glyph.
var portLine = regexp.MustCompile(`(?i)(\d+)/(tcp|udp)\s+open\s+([\w.-]+)(?:[ \t]+(.+))?`)

// ParsePortOutput returns one record per open-port line. No placeholder is
// ever synthesized.
func ParsePortOutput(raw string) PortParseResult {
	ports := make([]models.OpenPortRecord, 0)

	for _, line := range splitLines(raw) {
		m := portLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		service := m[3]
		if service == "" {
			service = ServiceUnknown
		}

		ports = append(ports, models.OpenPortRecord{
			Port:    m[1] + "/" + strings.ToLower(m[2]),
			Service: service,
			Version: strings.TrimSpace(m[4]),
		})
	}

	return PortParseResult{
		Status:    statusFor(raw, len(ports)),
		OpenPorts: ports,
		Raw:       raw,
	}
}
