package report

import (
	"strings"
	"time"
)

const (
	RiskCritical = "Crítico"
	RiskHigh     = "Alto"
	RiskLow      = "Bajo"
)

var (
	criticalServices = []string{"telnet", "ftp", "rsh", "rlogin"}
	highRiskPorts    = []string{"22", "23", "21", "3389", "1433", "3306", "5432"}
)

// RiskLevel rates an open port. Critical services win over port numbers.
func RiskLevel(service, port string) string {
	if contains(criticalServices, strings.ToLower(service)) {
		return RiskCritical
	}
	number, _, _ := strings.Cut(port, "/")
	if contains(highRiskPorts, number) {
		return RiskHigh
	}
	return RiskLow
}

var serviceCategories = []struct {
	name     string
	services []string
}{
	{"Web Services", []string{"http", "https", "http-proxy", "http-alt"}},
	{"Remote Access", []string{"ssh", "telnet", "rdp", "vnc"}},
	{"File Transfer", []string{"ftp", "sftp", "tftp"}},
	{"Database", []string{"mysql", "postgresql", "mongodb", "redis"}},
	{"Mail Services", []string{"smtp", "pop3", "imap"}},
	{"Network Services", []string{"dns", "dhcp", "ntp", "snmp"}},
}

func ServiceCategory(service string) string {
	service = strings.ToLower(service)
	for _, category := range serviceCategories {
		if contains(category.services, service) {
			return category.name
		}
	}
	return "Other"
}

const (
	BadgeExpired  = "Expirado"
	BadgeExpiring = "Expira pronto"
	BadgeActive   = "Activo"
)

// expiryLayouts covers the date spellings registries commonly return.
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"20060102",
}

// ExpiryBadge labels a registration by its expiration date. It returns ""
// when the date is absent or cannot be parsed.
func ExpiryBadge(expiration string, now time.Time) string {
	// text lookups arrive lowercased
	expiration = strings.ToUpper(strings.TrimSpace(expiration))
	if expiration == "" {
		return ""
	}
	for _, layout := range expiryLayouts {
		expiry, err := time.Parse(layout, expiration)
		if err != nil {
			continue
		}
		days := expiry.Sub(now).Hours() / 24
		switch {
		case days < 0:
			return BadgeExpired
		case days < 30:
			return BadgeExpiring
		default:
			return BadgeActive
		}
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
