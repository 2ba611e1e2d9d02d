package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ScanKind string

const (
	KindFuzzing ScanKind = "fuzzing"
	KindNmap    ScanKind = "nmap"
	KindWhois   ScanKind = "whois"
)

// ScanKinds lists the supported kinds in display order.
var ScanKinds = []ScanKind{KindFuzzing, KindNmap, KindWhois}

func ParseScanKind(s string) (ScanKind, bool) {
	switch ScanKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindFuzzing, "fuzz", "dir":
		return KindFuzzing, true
	case KindNmap, "ports", "portscan":
		return KindNmap, true
	case KindWhois:
		return KindWhois, true
	}
	return "", false
}

// Description is the one-line summary shown next to each kind.
func (k ScanKind) Description() string {
	switch k {
	case KindFuzzing:
		return "Búsqueda de directorios y archivos ocultos"
	case KindNmap:
		return "Escaneo de puertos y servicios"
	case KindWhois:
		return "Información del dominio y registrante"
	}
	return ""
}

type ScanStatus string

const (
	StatusRunning   ScanStatus = "running"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
)

func (s ScanStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus tells a clean scan apart from output the extractor could not read.
type ParseStatus string

const (
	ParseStatusParsed ParseStatus = "parsed"
	ParseStatusEmpty  ParseStatus = "empty"
	ParseStatusFailed ParseStatus = "parse_failed"
)

// Scan is the persisted aggregate for one scan run.
type Scan struct {
	ID           string              `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Owner        string              `gorm:"index;type:varchar(255)" json:"owner,omitempty"`
	URL          string              `json:"url"`
	Kind         ScanKind            `gorm:"type:varchar(16)" json:"scan_type"`
	CreatedAt    time.Time           `gorm:"index" json:"timestamp"`
	Results      []FuzzResultRecord  `gorm:"serializer:json" json:"results"`
	Ports        *PortScanResult     `gorm:"serializer:json" json:"ports,omitempty"`
	Whois        *DomainLookupRecord `gorm:"serializer:json" json:"whois,omitempty"`
	Status       ScanStatus          `gorm:"type:varchar(16)" json:"status"`
	ParseStatus  ParseStatus         `gorm:"type:varchar(16)" json:"parse_status,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

// NewScan returns a scan in the running state.
func NewScan(owner, url string, kind ScanKind, now time.Time) *Scan {
	return &Scan{
		ID:        NewScanID(now),
		Owner:     owner,
		URL:       url,
		Kind:      kind,
		CreatedAt: now.UTC(),
		Results:   []FuzzResultRecord{},
		Status:    StatusRunning,
	}
}

// NewScanID builds ids of the form scan_<unix millis>_<9 random chars>.
func NewScanID(now time.Time) string {
	random := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("scan_%d_%s", now.UnixMilli(), random[:9])
}

// HasResults reports whether the scan carries anything worth rendering.
func (s *Scan) HasResults() bool {
	return len(s.Results) > 0 || s.Ports != nil || s.Whois != nil
}

// FuzzResultRecord is one path discovered by directory fuzzing.
type FuzzResultRecord struct {
	Sequence     int     `json:"id_fuzz_result"`
	PathFound    string  `json:"path_found"`
	RedirectTo   string  `json:"redirect_to,omitempty"`
	HTTPStatus   int     `json:"http_status"`
	ResponseSize int64   `json:"response_size"`
	ResponseTime float64 `json:"response_time"`
	Headers      string  `json:"headers"`
	IsRedirect   bool    `json:"is_redirect"`
}

// OpenPortRecord is one open port reported by a port scan.
type OpenPortRecord struct {
	Port    string `json:"port"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Number returns the numeric part of the "<port>/<protocol>" label.
func (p OpenPortRecord) Number() string {
	number, _, _ := strings.Cut(p.Port, "/")
	return number
}

type PortScanResult struct {
	Raw       string           `json:"raw"`
	OpenPorts []OpenPortRecord `json:"openPorts"`
}

// DomainLookupRecord holds WHOIS registration data. Empty strings mean the
// value was not found.
type DomainLookupRecord struct {
	DomainName     string     `json:"domain_name"`
	Registrar      string     `json:"registrar"`
	CreationDate   string     `json:"creation_date"`
	ExpirationDate string     `json:"expiration_date"`
	UpdatedDate    string     `json:"updated_date"`
	Registrant     Registrant `json:"registrant"`
	NameServers    []string   `json:"name_servers"`
}

type Registrant struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// HasData reports whether any registration field or name server is present.
func (r DomainLookupRecord) HasData() bool {
	return r.Registrar != "" ||
		r.CreationDate != "" ||
		r.ExpirationDate != "" ||
		r.UpdatedDate != "" ||
		r.Registrant.Name != "" ||
		r.Registrant.Country != "" ||
		len(r.NameServers) > 0
}
