package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScanKind(t *testing.T) {
	tests := []struct {
		input    string
		expected ScanKind
		ok       bool
	}{
		{"fuzzing", KindFuzzing, true},
		{" DIR ", KindFuzzing, true},
		{"nmap", KindNmap, true},
		{"ports", KindNmap, true},
		{"Whois", KindWhois, true},
		{"subdomain", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, ok := ParseScanKind(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, kind)
		})
	}

	for _, kind := range ScanKinds {
		assert.NotEmpty(t, kind.Description())
	}
}

func TestNewScan(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	scan := NewScan("alice@example.com", "https://example.com", KindNmap, now)

	assert.True(t, strings.HasPrefix(scan.ID, "scan_1735783445000_"))
	assert.Len(t, strings.TrimPrefix(scan.ID, "scan_1735783445000_"), 9)
	assert.Equal(t, StatusRunning, scan.Status)
	assert.False(t, scan.Status.Terminal())
	assert.Equal(t, time.UTC, scan.CreatedAt.Location())
	assert.NotNil(t, scan.Results)
	assert.False(t, scan.HasResults())

	assert.NotEqual(t, NewScanID(now), NewScanID(now))
}

func TestScan_JSONShape(t *testing.T) {
	scan := NewScan("", "https://example.com", KindFuzzing, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	scan.ID = "scan_1"

	data, err := json.Marshal(scan)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "scan_1",
		"url": "https://example.com",
		"scan_type": "fuzzing",
		"timestamp": "2025-01-01T00:00:00Z",
		"results": [],
		"status": "running"
	}`, string(data))
}

func TestUserID_Unmarshal(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42, "email": "a@b.c", "firstName": "Ana"}`), &u))
	assert.Equal(t, UserID("42"), u.ID)
	assert.Equal(t, "Ana", u.DisplayName())

	require.NoError(t, json.Unmarshal([]byte(`{"id": "u-7", "email": "a@b.c"}`), &u))
	assert.Equal(t, "u-7", u.ID.String())
	assert.Equal(t, "a@b.c", User{Email: "a@b.c"}.DisplayName())

	data, err := json.Marshal(User{ID: "42"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"42"`)
}

func TestPortAndWhoisHelpers(t *testing.T) {
	assert.Equal(t, "443", OpenPortRecord{Port: "443/tcp"}.Number())
	assert.False(t, DomainLookupRecord{DomainName: "x"}.HasData())
	assert.True(t, DomainLookupRecord{Registrant: Registrant{Country: "ES"}}.HasData())
}
