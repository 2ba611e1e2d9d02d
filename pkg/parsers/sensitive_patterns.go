package parsers

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"blitzscan/internal/models"
)

type SensitivePattern struct {
	Pattern     string
	Regex       *regexp.Regexp
	Severity    string
	Description string
	Category    string
}

// SensitiveFinding pairs a discovered path with the catalogue entry it hit.
type SensitiveFinding struct {
	Record  models.FuzzResultRecord
	Pattern SensitivePattern
}

// Ordered so that the more specific entry of a family is tried first.
var defaultPatterns = []SensitivePattern{
	{Pattern: "/.git/config", Severity: "critical", Description: "Git Configuration", Category: "Source Code"},
	{Pattern: "/.git", Severity: "critical", Description: "Git Repository Exposed", Category: "Source Code"},
	{Pattern: "/.svn", Severity: "critical", Description: "SVN Repository Exposed", Category: "Source Code"},
	{Pattern: "/.env", Severity: "critical", Description: "Environment Configuration File", Category: "Configuration"},
	{Pattern: "/web.config", Severity: "critical", Description: "IIS Web Configuration", Category: "Configuration"},
	{Pattern: "/actuator/env", Severity: "critical", Description: "Spring Boot Environment Exposure", Category: "Configuration"},
	{Pattern: "/actuator/heapdump", Severity: "critical", Description: "Spring Boot Heap Dump", Category: "Configuration"},
	{Pattern: "/actuator", Severity: "critical", Description: "Spring Boot Actuator", Category: "Configuration"},
	{Pattern: "/config.json", Severity: "high", Description: "JSON Configuration File", Category: "Configuration"},
	{Pattern: "/config.yml", Severity: "high", Description: "YAML Configuration File", Category: "Configuration"},
	{Pattern: "/application.properties", Severity: "high", Description: "Application Properties File", Category: "Configuration"},
	{Pattern: "/config", Severity: "medium", Description: "Configuration Directory", Category: "Configuration"},
	{Pattern: "/.aws/credentials", Severity: "critical", Description: "AWS Credentials File", Category: "Credentials"},
	{Pattern: "/.ssh", Severity: "critical", Description: "SSH Keys Directory", Category: "Credentials"},
	{Pattern: "/credentials", Severity: "critical", Description: "Credentials File", Category: "Credentials"},
	{Pattern: "/backup.sql", Severity: "critical", Description: "Database Backup", Category: "Database"},
	{Pattern: ".sql", Severity: "critical", Description: "SQL Database Dump", Category: "Database"},
	{Pattern: "/phpmyadmin", Severity: "high", Description: "phpMyAdmin", Category: "Admin"},
	{Pattern: "/administrator", Severity: "high", Description: "Administrator Panel", Category: "Admin"},
	{Pattern: "/admin", Severity: "high", Description: "Admin Panel", Category: "Admin"},
	{Pattern: "/console", Severity: "critical", Description: "Web Console", Category: "Admin"},
	{Pattern: "/dashboard", Severity: "medium", Description: "Dashboard", Category: "Admin"},
	{Pattern: "/phpinfo.php", Severity: "critical", Description: "PHP Info Page", Category: "Information Disclosure"},
	{Pattern: "/server-status", Severity: "high", Description: "Apache Server Status", Category: "Information Disclosure"},
	{Pattern: "/swagger", Severity: "medium", Description: "Swagger API Documentation", Category: "API"},
	{Pattern: "/api-docs", Severity: "medium", Description: "API Documentation", Category: "API"},
	{Pattern: "/graphql", Severity: "medium", Description: "GraphQL Endpoint", Category: "API"},
	{Pattern: "/debug", Severity: "high", Description: "Debug Endpoint", Category: "Debug"},
	{Pattern: "/uploads", Severity: "medium", Description: "Upload Directory", Category: "Storage"},
	{Pattern: "/backup", Severity: "high", Description: "Backup Directory", Category: "Backup"},
	{Pattern: ".bak", Severity: "high", Description: "Backup File", Category: "Backup"},
	{Pattern: ".zip", Severity: "medium", Description: "Archive File", Category: "Backup"},
}

// LoadSensitivePatternsFromFile reads one regular expression per line;
// blank lines and lines starting with '#' are ignored.
func LoadSensitivePatternsFromFile(filePath string) ([]SensitivePattern, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []SensitivePattern
	scanner := bufio.NewScanner(file)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		re, err := regexp.Compile("(?i)" + line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filePath, lineNo, err)
		}

		patterns = append(patterns, SensitivePattern{
			Pattern:     line,
			Regex:       re,
			Severity:    "high",
			Description: "Custom Pattern Match",
			Category:    "Custom",
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}

func GetDefaultPatterns() []SensitivePattern {
	patterns := make([]SensitivePattern, len(defaultPatterns))
	copy(patterns, defaultPatterns)

	for i := range patterns {
		patterns[i].Regex = regexp.MustCompile(regexp.QuoteMeta(patterns[i].Pattern))
	}

	return patterns
}

var builtinPatterns = GetDefaultPatterns()

// LoadPatterns returns the catalogue to classify paths with. An empty path
// or a file without patterns means the built-in catalogue; otherwise the
// file replaces it.
func LoadPatterns(filePath string) ([]SensitivePattern, error) {
	if filePath == "" {
		return GetDefaultPatterns(), nil
	}
	patterns, err := LoadSensitivePatternsFromFile(filePath)
	if err != nil {
		return GetDefaultPatterns(), err
	}
	if len(patterns) == 0 {
		return GetDefaultPatterns(), nil
	}
	return patterns, nil
}

// ClassifyPath returns the first pattern that matches a discovered path. A
// nil catalogue means the built-in one.
func ClassifyPath(path string, patterns []SensitivePattern) (SensitivePattern, bool) {
	if patterns == nil {
		patterns = builtinPatterns
	}
	// "/login → /dashboard" is judged by the path that was requested
	requested, _, _ := strings.Cut(path, " → ")
	lower := strings.ToLower(requested)

	for _, pattern := range patterns {
		if pattern.Regex != nil && pattern.Regex.MatchString(lower) {
			return pattern, true
		}
	}
	return SensitivePattern{}, false
}

// FindSensitive returns the records whose path hits a pattern. A nil
// catalogue means the built-in one.
func FindSensitive(records []models.FuzzResultRecord, patterns []SensitivePattern) []SensitiveFinding {
	var findings []SensitiveFinding
	for _, record := range records {
		if pattern, ok := ClassifyPath(record.PathFound, patterns); ok {
			findings = append(findings, SensitiveFinding{Record: record, Pattern: pattern})
		}
	}
	return findings
}

func GetSeverityEmoji(severity string) string {
	switch strings.ToLower(severity) {
	case "critical":
		return "🔴"
	case "high":
		return "🟠"
	case "medium":
		return "🟡"
	case "low":
		return "🟢"
	case "info":
		return "🔵"
	default:
		return "⚪"
	}
}
