package parsers

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"blitzscan/internal/models"
)

// NotAvailable is how absent WHOIS values are rendered and how some backends
// spell them out in their own output.
const NotAvailable = "No disponible"

// Field patterns run against the lowercased text, most specific first. The
// line-anchored forms require a colon; the trailing ones are last resorts.
var (
	registrarPatterns = compileAll(
		`(?m)^\s*registrar name[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*sponsoring registrar[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*registrar[ \t]*:[ \t]*(.+)$`,
		`registrar[:\s]+(.+)`,
		`sponsoring\b[:\s]*([^:\n]+)`,
	)
	creationPatterns = compileAll(
		`(?m)^\s*creation date[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*created on[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*registration (?:date|time)[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*created[ \t]*:[ \t]*(.+)$`,
		`creation date[:\s]+(.+)`,
		`created[:\s]+(.+)`,
		`creation\b[:\s]*([^:\n]+)`,
	)
	expirationPatterns = compileAll(
		`(?m)^\s*registry expiry date[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*registrar registration expiration date[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*expiration date[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*expiry date[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*expires on[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*(?:expires|paid-till)[ \t]*:[ \t]*(.+)$`,
		`expiration date[:\s]+(.+)`,
		`expires[:\s]+(.+)`,
		`expiration\b[:\s]*([^:\n]+)`,
	)
	updatedPatterns = compileAll(
		`(?m)^\s*updated date[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*last updated(?: on)?[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*last modified[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*(?:modified|changed)[ \t]*:[ \t]*(.+)$`,
		`updated date[:\s]+(.+)`,
		`updated\b[:\s]*([^:\n]+)`,
		`modified\b[:\s]*([^:\n]+)`,
	)
	registrantPatterns = compileAll(
		`(?m)^\s*registrant name[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*registrant organi[sz]ation[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*registrant[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*(?:org-name|organi[sz]ation)[ \t]*:[ \t]*(.+)$`,
		`registrant[ \t]*:[ \t]*(.+)`,
		`organization\b[:\s]*([^:\n]+)`,
	)
	countryPatterns = compileAll(
		`(?m)^\s*registrant country[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*country[ \t]*:[ \t]*(.+)$`,
		`(?m)^\s*registrant state/province[ \t]*:[ \t]*(.+)$`,
		`country[:\s]+(.+)`,
		`state\b[:\s]*([^:\n]+)`,
	)
	// name servers are matched per line so every occurrence is collected;
	// a value never starts with the separator
	nameServerPatterns = compileAll(
		`(?i)^name ?servers?[ \t]*:[ \t]*([^:\s]\S*)`,
		`(?i)^nserver[ \t]*:?[ \t]+([^:\s]\S*)`,
		`(?i)name ?server[ \t]*:[ \t]*([^:\s]\S*)`,
	)
	// "Name servers:" on its own line introduces an indented list
	nameServerHeader = regexp.MustCompile(`(?i)^name ?servers?[ \t]*:?[ \t]*$`)
	hostName         = regexp.MustCompile(`(?i)^([a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]+)+)\.?(?:\s|$)`)

	embeddedJSON = regexp.MustCompile(`\{[^}]+\}`)
)

// usefulMarkers signal registration data in raw text the field patterns may
// have missed.
var usefulMarkers = []string{"registrar", "creation", "expiration", "registrant", "name server", "nameserver"}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// ParseWhoisOutput turns a WHOIS payload into a record for domain. A JSON
// document starting at the first '{' is used as-is; otherwise fields are
// extracted heuristically. Malformed input never produces an error.
func ParseWhoisOutput(raw, domain string) models.DomainLookupRecord {
	if idx := strings.Index(raw, "{"); idx != -1 {
		if record, ok := decodeWhoisJSON(raw[idx:]); ok {
			if record.DomainName == "" {
				record.DomainName = domain
			}
			return record
		}
	}
	return parseWhoisText(raw, domain)
}

// HasUsefulWhoisData decides whether a lookup attempt produced anything
// worth keeping.
func HasUsefulWhoisData(record models.DomainLookupRecord, raw string) bool {
	if record.HasData() {
		return true
	}
	lower := strings.ToLower(raw)
	for _, marker := range usefulMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// WhoisParseStatus classifies a parsed record against its raw payload.
func WhoisParseStatus(record models.DomainLookupRecord, raw string) models.ParseStatus {
	if record.HasData() {
		return models.ParseStatusParsed
	}
	return statusFor(raw, 0)
}

func parseWhoisText(raw, domain string) models.DomainLookupRecord {
	record := models.DomainLookupRecord{DomainName: domain}
	full := strings.ToLower(raw)

	record.Registrar = firstMatch(full, registrarPatterns)
	record.CreationDate = firstMatch(full, creationPatterns)
	record.ExpirationDate = firstMatch(full, expirationPatterns)
	record.UpdatedDate = firstMatch(full, updatedPatterns)
	record.Registrant.Name = firstMatch(full, registrantPatterns)
	record.Registrant.Country = firstMatch(full, countryPatterns)

	seen := make(map[string]bool)
	addNameServer := func(value string) {
		ns := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(value)), ".")
		if usable(ns) && !seen[ns] {
			seen[ns] = true
			record.NameServers = append(record.NameServers, ns)
		}
	}

	inList := false
	for _, line := range splitLines(raw) {
		line = strings.TrimSpace(line)
		if line == "" {
			inList = false
			continue
		}
		if nameServerHeader.MatchString(line) {
			inList = true
			continue
		}
		if inList {
			if m := hostName.FindStringSubmatch(line); m != nil {
				addNameServer(m[1])
				continue
			}
			inList = false
		}
		for _, pattern := range nameServerPatterns {
			if m := pattern.FindStringSubmatch(line); m != nil {
				addNameServer(m[1])
			}
		}
	}

	fillFromEmbeddedJSON(raw, &record)
	return record
}

func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, pattern := range patterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if value := strings.TrimSpace(m[1]); usable(value) {
			return value
		}
	}
	return ""
}

func usable(value string) bool {
	return value != "" && !strings.EqualFold(value, NotAvailable)
}

// fillFromEmbeddedJSON only fills fields the text patterns left empty.
func fillFromEmbeddedJSON(raw string, record *models.DomainLookupRecord) {
	for _, fragment := range embeddedJSON.FindAllString(raw, -1) {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal([]byte(fragment), &doc); err != nil {
			continue
		}
		if v := looseString(doc["registrar"]); v != "" && record.Registrar == "" {
			record.Registrar = v
		}
		if v := looseString(doc["creation_date"]); v != "" && record.CreationDate == "" {
			record.CreationDate = v
		}
		if v := looseString(doc["expiration_date"]); v != "" && record.ExpirationDate == "" {
			record.ExpirationDate = v
		}
		if reg := decodeRegistrant(doc["registrant"]); reg.Name != "" && record.Registrant.Name == "" {
			record.Registrant.Name = reg.Name
		}
	}
}

func decodeWhoisJSON(payload string) (models.DomainLookupRecord, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return models.DomainLookupRecord{}, false
	}

	record := models.DomainLookupRecord{
		DomainName:     looseString(doc["domain_name"]),
		Registrar:      looseString(doc["registrar"]),
		CreationDate:   looseString(doc["creation_date"]),
		ExpirationDate: looseString(doc["expiration_date"]),
		UpdatedDate:    looseString(doc["updated_date"]),
		Registrant:     decodeRegistrant(doc["registrant"]),
		NameServers:    looseStrings(doc["name_servers"]),
	}
	if record.Registrant.Country == "" {
		record.Registrant.Country = looseString(doc["country"])
	}
	if len(record.NameServers) == 0 {
		record.NameServers = looseStrings(doc["nameservers"])
	}
	return record, true
}

// decodeRegistrant accepts either a bare name or a {name, country} object.
func decodeRegistrant(raw json.RawMessage) models.Registrant {
	if len(raw) == 0 {
		return models.Registrant{}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return models.Registrant{
			Name:    looseString(obj["name"]),
			Country: looseString(obj["country"]),
		}
	}
	return models.Registrant{Name: looseString(raw)}
}

// looseString reads strings, numbers and lists (first element).
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if v := looseString(item); v != "" {
				return v
			}
		}
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

func looseStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		if v := looseString(raw); v != "" {
			return []string{v}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if v := looseString(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
