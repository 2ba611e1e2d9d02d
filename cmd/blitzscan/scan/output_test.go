package scan

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"blitzscan/internal/models"
	"blitzscan/pkg/parsers"
	"blitzscan/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var created = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func sampleScans() []models.Scan {
	return []models.Scan{
		{
			ID: "scan_2", URL: "https://example.com", Kind: models.KindNmap, CreatedAt: created,
			Status: models.StatusCompleted,
			Ports:  &models.PortScanResult{OpenPorts: []models.OpenPortRecord{{Port: "22/tcp", Service: "ssh"}}},
		},
		{
			ID: "scan_1", URL: "https://example.com", Kind: models.KindFuzzing, CreatedAt: created.Add(-time.Hour),
			Status:  models.StatusCompleted,
			Results: []models.FuzzResultRecord{{PathFound: "/admin", HTTPStatus: 200}, {PathFound: "/.env", HTTPStatus: 200}},
		},
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		scan     models.Scan
		expected string
	}{
		{"fuzzing counts paths", sampleScans()[1], "2 rutas"},
		{"nmap counts ports", sampleScans()[0], "1 puertos"},
		{"whois with data", models.Scan{Kind: models.KindWhois, Status: models.StatusCompleted, Whois: &models.DomainLookupRecord{Registrar: "x"}}, "registro"},
		{"whois without data", models.Scan{Kind: models.KindWhois, Status: models.StatusCompleted, Whois: &models.DomainLookupRecord{}}, "sin datos"},
		{"failed scan", models.Scan{Kind: models.KindNmap, Status: models.StatusFailed}, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Summarize(tt.scan).Results)
		})
	}
}

func TestWriteHistory_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, sampleScans(), FormatJSON))

	var decoded []models.Scan
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "scan_2", decoded[0].ID)
	assert.Equal(t, models.KindNmap, decoded[0].Kind)
	assert.Len(t, decoded[1].Results, 2)
}

func TestWriteHistory_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, sampleScans(), FormatYAML))

	var decoded []Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, Summary{
		ID: "scan_2", Type: "nmap", URL: "https://example.com", Status: "completed", Date: created, Results: "1 puertos",
	}, decoded[0])
	assert.Contains(t, buf.String(), "scan_type: fuzzing")
}

func TestWriteHistory_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, nil, FormatTable))
	assert.Equal(t, "No hay escaneos en el historial\n", buf.String())
}

func TestWriteHistory_UnknownFormat(t *testing.T) {
	err := WriteHistory(&bytes.Buffer{}, sampleScans(), "xml")
	assert.EqualError(t, err, `unknown output format "xml"`)
}

func TestFuzzTable_Patterns(t *testing.T) {
	results := []models.FuzzResultRecord{
		{PathFound: "/.env", HTTPStatus: 200, ResponseSize: 10},
		{PathFound: "/internal/health", HTTPStatus: 200, ResponseSize: 20},
	}

	builtin := fuzzTable(results, nil)
	require.Len(t, builtin, 3)
	assert.Equal(t, "🔴 Environment Configuration File", builtin[1][3])
	assert.Empty(t, builtin[2][3])

	dir, cleanup := testutil.TempDir(t, "blitzscan-patterns-")
	defer cleanup()
	patterns, err := parsers.LoadPatterns(testutil.CreateTestFile(t, dir, "patterns.txt", "^/internal\n"))
	require.NoError(t, err)

	custom := fuzzTable(results, patterns)
	assert.Empty(t, custom[1][3])
	assert.Equal(t, "🟠 Custom Pattern Match", custom[2][3])
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()

	path, err := writeReport(dir+"/reports", "blitz-scan-report-scan_1.txt", []byte("contenido"))
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, dir+"/reports/blitz-scan-report-scan_1.txt", path)
}
